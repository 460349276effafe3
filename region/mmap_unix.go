// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package region

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap is a Region backed by one anonymous, private mmap(2) reservation,
// committed by advancing a high-water mark inside it — a real-OS analogue
// of sbrk: the mapping never moves or grows past its initial reservation,
// it is only ever exposed incrementally.
//
// Grounded in the teacher's mmap_unix.go, modernized from the raw
// syscall package to the ecosystem's golang.org/x/sys/unix.
type Mmap struct {
	buf  []byte
	size int
}

// NewMmap reserves capacity bytes of anonymous memory and returns an
// empty (Size() == 0) Mmap region.
func NewMmap(capacity int) (*Mmap, error) {
	b, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: mmap reservation of %d bytes failed: %w", capacity, err)
	}
	return &Mmap{buf: b}, nil
}

func (m *Mmap) Extend(n int) (int, error) {
	old := m.size
	if n < 0 {
		panic("region: negative Extend")
	}
	if old+n > len(m.buf) {
		return 0, &ErrExhausted{Requested: n, Available: len(m.buf) - old}
	}
	m.size += n
	return old, nil
}

func (m *Mmap) Hi() int {
	if m.size == 0 {
		return -1
	}
	return m.size - 1
}

func (m *Mmap) Size() int { return m.size }

func (m *Mmap) Bytes() []byte { return m.buf[:m.size] }

// Close unmaps the reservation. Not part of the Region interface — the
// allocator never returns its backing region to the OS during the process
// lifetime — but tests want a way to release what they reserved.
func (m *Mmap) Close() error {
	if m.buf == nil {
		return nil
	}
	b := m.buf[:cap(m.buf)]
	m.buf, m.size = nil, 0
	return unix.Munmap(b)
}
