// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package region

import "errors"

// Mmap is unavailable on this platform; construct an Arena instead.
type Mmap struct{}

func NewMmap(capacity int) (*Mmap, error) {
	return nil, errors.New("region: mmap-backed region is not supported on this platform; use Arena")
}

func (m *Mmap) Extend(n int) (int, error) { return 0, errors.New("region: mmap not supported") }
func (m *Mmap) Hi() int                   { return -1 }
func (m *Mmap) Size() int                 { return 0 }
func (m *Mmap) Bytes() []byte             { return nil }
func (m *Mmap) Close() error              { return nil }
