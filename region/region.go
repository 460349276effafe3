// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region provides the sbrk-like backing store consumed by
// package brkalloc: a single contiguous byte region that can only be
// extended at its high end, never shrunk or unmapped.
package region

import "fmt"

// Region is the backing-region contract consumed by the allocator (spec
// §6.1): Extend grows the region by exactly n bytes (n is always a
// multiple of 8) and returns the region's size before the call; Hi and
// Size report the current top.
type Region interface {
	// Extend grows the region by n bytes, returning the region's size
	// immediately before the call (i.e. the offset of the first new
	// byte). It fails, without growing the region, if the backing store
	// is exhausted.
	Extend(n int) (old int, err error)

	// Hi returns the current top of the region (inclusive), or -1 if
	// the region is empty.
	Hi() int

	// Size returns the number of committed bytes.
	Size() int

	// Bytes returns a view of the committed region. The slice's
	// underlying array never moves across calls to Extend: Bytes is
	// always a re-slice of the same array, so offsets taken before an
	// Extend call stay valid afterward.
	Bytes() []byte
}

// ErrExhausted is returned by Region implementations when Extend cannot
// grow the backing store far enough to satisfy the request.
type ErrExhausted struct {
	Requested int
	Available int
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("region: exhausted: requested %d bytes, %d available", e.Requested, e.Available)
}
