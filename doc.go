// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package brkalloc implements a dynamic memory allocator over a single
// contiguous, monotonically-growable byte region obtained from a
// sbrk-like backing store (see package region).
//
// Two heap layout strategies are provided, selected via Config.Kind:
//
//   - Implicit: a boundary-tag implicit free list, linear first-fit search,
//     immediate boundary-tag coalescing, split-on-place.
//   - Segregated: the same boundary-tag discipline plus sixteen
//     size-classed, circular doubly-linked free lists with LIFO insertion
//     and first-fit search across escalating classes.
//
// Both variants expose the four classical heap operations — Malloc, Free,
// Realloc, Calloc — returning handles (Ptr) to 16-byte-aligned payloads in
// the backing region. A Ptr is an opaque 1-based offset, not a Go pointer;
// use (*Allocator).Bytes to get a read/write view of a handle's payload.
//
// Changelog
//
// 2024-01-01 Initial implicit and segregated variants.
package brkalloc

// roundUp returns the smallest multiple of m that is >= n. m must be a
// power of two.
func roundUp(n, m uint32) uint32 { return (n + m - 1) &^ (m - 1) }
