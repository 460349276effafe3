// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import (
	"fmt"

	"github.com/cznic/brkalloc/region"
)

// align is the payload alignment this module guarantees (spec §3.1). Every
// block this allocator creates for its own bookkeeping (as opposed to the
// fixed-size sentinels) has a size that is a multiple of align, which is
// what keeps every payload 16-byte aligned as the heap grows, splits and
// coalesces — not just the first one.
const align = 16

// sentinelSize is the size, in bytes, of the prologue block (the epilogue
// is a single header word). The prologue is the smallest valid
// block encoding (header+footer, no payload) in both variants — smaller
// than either variant's general minBlockSize, which must additionally
// hold payload or free-list pointers.
const sentinelSize = 2 * wordSize

// strategy is the capability set that differs between the implicit and
// segregated layouts (Design Notes §9): everything else (block encoding,
// bootstrap/extend glue, boundary-tag coalescing) is shared in this file.
type strategy interface {
	kind() Kind
	minBlockSize() uint32
	adjustedSize(n int) uint32

	// bootstrap lays down whatever fixed layout (sentinels, size-class
	// heads) precedes the heap's first extend. It must leave
	// a.heapStart and a.epilogueOff set.
	bootstrap(a *Allocator) error

	// findFit returns the offset of a free block able to hold asize
	// bytes, or (0, false) on a miss.
	findFit(a *Allocator, asize uint32) (uint32, bool)

	// detach removes a known-free block from free-list bookkeeping
	// before it changes size or identity. A no-op for Implicit.
	detach(a *Allocator, off uint32)

	// attach inserts a known-free block into free-list bookkeeping
	// under its current size. A no-op for Implicit.
	attach(a *Allocator, off uint32)
}

// Allocator manages one heap over a region.Region. Its zero value is not
// usable; construct one with NewAllocator. There is no internal mutex —
// concurrent use from multiple goroutines is undefined behavior, matching
// spec §5.
type Allocator struct {
	region region.Region
	strat  strategy

	chunk uint32

	heapStart   uint32 // prologue header offset
	epilogueOff uint32 // current epilogue header offset
	heads       [16]uint32

	inited bool

	allocs, frees int
	liveBytes     int
}

// NewAllocator constructs and initializes an Allocator per cfg.
func NewAllocator(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chunk := cfg.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	reg := cfg.Region
	if reg == nil {
		maxBytes := cfg.MaxBytes
		if maxBytes == 0 {
			maxBytes = DefaultMaxBytes
		}
		reg = region.NewArena(maxBytes)
	}
	a := &Allocator{region: reg, chunk: uint32(chunk)}
	switch cfg.Kind {
	case Implicit:
		a.strat = implicitStrategy{}
	case Segregated:
		a.strat = segregatedStrategy{}
	default:
		return nil, fmt.Errorf("brkalloc: invalid Kind %d", int(cfg.Kind))
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// Kind reports the allocator's layout strategy.
func (a *Allocator) Kind() Kind { return a.strat.kind() }

func (a *Allocator) mem() []byte { return a.region.Bytes() }

func (a *Allocator) init() error {
	if a.inited {
		return nil
	}
	if err := a.strat.bootstrap(a); err != nil {
		return err
	}
	if _, err := a.extendHeap(a.chunk); err != nil {
		return err
	}
	a.inited = true
	return nil
}

// heapSize is the logical extent of the heap's meaningful content — up to
// and including the current epilogue word. The backing region's raw
// Size() may exceed this by a few bytes of trailing slack left over from
// rounding an Extend call up to a multiple of 8; heapSize, not raw region
// capacity, is what invariant (I4) and Stats are defined against.
func (a *Allocator) heapSize() uint32 { return a.epilogueOff + wordSize }

// extendHeap grows the heap by n bytes (rounded up to align), installing
// a new free tail block and a fresh epilogue, then coalesces the new
// block with its (possibly free) predecessor. It returns the offset of
// the resulting free block (spec §4.C).
func (a *Allocator) extendHeap(n uint32) (uint32, error) {
	n = roundUp(n, align)
	if n == 0 {
		n = align
	}
	blockOff := a.epilogueOff
	if n > ^uint32(0)-blockOff-wordSize {
		return 0, fmt.Errorf("brkalloc: extending the heap by %d bytes exceeds the maximum heap size", n)
	}
	want := blockOff + n + wordSize
	cur := uint32(a.region.Size())
	if want > cur {
		grow := roundUp(want-cur, 8)
		if _, err := a.region.Extend(int(grow)); err != nil {
			return 0, err
		}
	}
	mem := a.mem()
	writeHeader(mem, blockOff, n, false)
	writeFooter(mem, blockOff, n, false)
	a.epilogueOff = blockOff + n
	writeHeader(mem, a.epilogueOff, 0, true)
	return a.coalesce(blockOff), nil
}

// coalesce fuses a newly-free block at off with any free neighbors (spec
// §4.D) and returns the offset of the resulting block. The block at off
// must already carry a free header/footer; neighbors absorbed into the
// result are detached from their free-list bookkeeping first, and the
// final result is (re)attached. Relies on the prologue/epilogue sentinels
// (always allocated) to make prevOff/nextOff safe at the heap's edges.
func (a *Allocator) coalesce(off uint32) uint32 {
	mem := a.mem()
	prev := prevOff(mem, off)
	prevFree := !blockAlloc(mem, prev)
	next := nextOff(mem, off)
	nextFree := !blockAlloc(mem, next)
	size := blockSize(mem, off)

	switch {
	case !prevFree && !nextFree:
		// no change
	case !prevFree && nextFree:
		a.strat.detach(a, next)
		size += blockSize(mem, next)
		writeHeader(mem, off, size, false)
		writeFooter(mem, off, size, false)
	case prevFree && !nextFree:
		a.strat.detach(a, prev)
		size += blockSize(mem, prev)
		writeHeader(mem, prev, size, false)
		writeFooter(mem, prev, size, false)
		off = prev
	default:
		a.strat.detach(a, prev)
		a.strat.detach(a, next)
		size += blockSize(mem, prev) + blockSize(mem, next)
		writeHeader(mem, prev, size, false)
		writeFooter(mem, prev, size, false)
		off = prev
	}
	a.strat.attach(a, off)
	return off
}

// place marks the free block at off allocated for asize bytes, splitting
// off a trailing free remainder when the leftover is large enough to be
// its own block (spec §4.E). off must be a free block that is still
// attached to the strategy's free-list bookkeeping, as findFit and
// extendHeap leave it; place detaches it itself via strat.detach.
func (a *Allocator) place(off, asize uint32) {
	mem := a.mem()
	a.strat.detach(a, off)
	csize := blockSize(mem, off)
	remainder := csize - asize
	if remainder >= a.strat.minBlockSize() {
		writeHeader(mem, off, asize, true)
		writeFooter(mem, off, asize, true)
		rem := off + asize
		writeHeader(mem, rem, remainder, false)
		writeFooter(mem, rem, remainder, false)
		a.strat.attach(a, rem)
	} else {
		writeHeader(mem, off, csize, true)
		writeFooter(mem, off, csize, true)
	}
}

// payloadOff returns the byte offset of a block's payload area.
func (a *Allocator) payloadOff(off uint32) uint32 {
	if a.strat.kind() == Segregated {
		return off + 8
	}
	return off + wordSize
}

// payloadCap returns the usable payload capacity of the block at off.
func (a *Allocator) payloadCap(off uint32) uint32 {
	size := blockSize(a.mem(), off)
	if a.strat.kind() == Segregated {
		return size - 12
	}
	return size - 2*wordSize
}
