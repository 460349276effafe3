// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import (
	"fmt"
	"math"
	"os"
)

// Ptr is an opaque handle to an allocated payload: a 1-based byte offset
// into the allocator's region (Nil, the zero value, is the null handle,
// mirroring a C NULL). Ptr is deliberately not a Go pointer — per Design
// Notes §9, block positions are typed offsets into an owned arena, not
// raw addresses — so callers read and write a handle's payload through
// (*Allocator).Bytes rather than dereferencing it directly.
type Ptr uint32

// Nil is the null handle returned by a zero-size Malloc and accepted as a
// no-op by Free.
const Nil Ptr = 0

// maxRequestSize is the largest payload size Malloc/Realloc/Calloc will
// ever hand to a strategy's adjustedSize. adjustedSize narrows its input
// to uint32 block-size arithmetic (header/footer overhead plus rounding),
// so a request anywhere near math.MaxUint32 would wrap silently into a
// tiny block instead of failing; requests above this bound are rejected
// outright instead of being narrowed.
const maxRequestSize = math.MaxUint32 - 64

func ptrFromOff(off uint32) Ptr { return Ptr(off + 1) }
func (p Ptr) off() uint32       { return uint32(p) - 1 }

// Bytes returns a writable view of p's payload. The returned slice's
// length is the block's usable capacity, which may exceed the size
// originally requested (the allocator never tracks requested size itself,
// only block size, matching the teacher's own "usable size can be larger
// than requested" contract). The slice aliases the allocator's region and
// must not be retained across an operation that could grow the region.
func (a *Allocator) Bytes(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	off := p.off()
	po := a.payloadOff(off)
	pc := a.payloadCap(off)
	return a.mem()[po : po+pc]
}

// Malloc allocates size bytes and returns a handle to them, or an error if
// the backing region is exhausted. Malloc(0) returns (Nil, nil): a
// documented success, not an error (spec §7 error kind 3).
func (a *Allocator) Malloc(size int) (Ptr, error) {
	if size == 0 {
		return Nil, nil
	}
	if size < 0 {
		return Nil, fmt.Errorf("brkalloc: negative size %d", size)
	}
	if size > maxRequestSize {
		return Nil, fmt.Errorf("brkalloc: size %d exceeds the maximum representable block size", size)
	}
	if err := a.init(); err != nil {
		return Nil, err
	}
	asize := a.strat.adjustedSize(size)
	off, ok := a.strat.findFit(a, asize)
	if !ok {
		grow := asize
		if a.chunk > grow {
			grow = a.chunk
		}
		var err error
		off, err = a.extendHeap(grow)
		if err != nil {
			return Nil, err
		}
	}
	a.place(off, asize)
	a.allocs++
	a.liveBytes += int(blockSize(a.mem(), off))
	if trace {
		fmt.Fprintf(os.Stderr, "Malloc(%d) -> %#x\n", size, off)
	}
	return ptrFromOff(off), nil
}

// Free deallocates the payload referenced by p. Free(Nil) is a no-op
// (spec §7 error kind 4).
func (a *Allocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	if !a.inited {
		return fmt.Errorf("brkalloc: free on uninitialized allocator")
	}
	off := p.off()
	mem := a.mem()
	size := blockSize(mem, off)
	writeHeader(mem, off, size, false)
	writeFooter(mem, off, size, false)
	a.coalesce(off)
	a.frees++
	a.liveBytes -= int(size)
	if trace {
		fmt.Fprintf(os.Stderr, "Free(%#x)\n", off)
	}
	return nil
}

// Realloc changes the size of p's block, preserving min(old, new) payload
// bytes. Realloc(Nil, n) is equivalent to Malloc(n); Realloc(p, 0) is
// equivalent to Free(p) (returning Nil). In the segregated variant, a
// request that fits inside the existing block shrinks and splits it
// in-place without moving the payload, coalescing the split-off
// remainder with a following free block before reinserting it — closing
// the (I3) window the reference implementation's reallocate otherwise
// leaves open (see SPEC_FULL.md §11 for this deliberate deviation).
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return a.Malloc(size)
	}
	if size == 0 {
		return Nil, a.Free(p)
	}
	if size < 0 {
		return Nil, fmt.Errorf("brkalloc: negative size %d", size)
	}
	if size > maxRequestSize {
		return Nil, fmt.Errorf("brkalloc: size %d exceeds the maximum representable block size", size)
	}
	if err := a.init(); err != nil {
		return Nil, err
	}

	off := p.off()
	asize := a.strat.adjustedSize(size)
	mem := a.mem()
	csize := blockSize(mem, off)

	if a.strat.kind() == Segregated && asize <= csize {
		remainder := csize - asize
		if remainder >= a.strat.minBlockSize() {
			writeHeader(mem, off, asize, true)
			writeFooter(mem, off, asize, true)
			rem := off + asize
			writeHeader(mem, rem, remainder, false)
			writeFooter(mem, rem, remainder, false)
			a.coalesce(rem)
			a.liveBytes -= int(csize - blockSize(mem, off))
		}
		return p, nil
	}

	newPtr, err := a.Malloc(size)
	if err != nil {
		return Nil, err
	}
	newOff := newPtr.off()
	mem = a.mem()
	n := a.payloadCap(off)
	if nc := a.payloadCap(newOff); nc < n {
		n = nc
	}
	if uint32(size) < n {
		n = uint32(size)
	}
	srcPO := a.payloadOff(off)
	dstPO := a.payloadOff(newOff)
	copy(mem[dstPO:dstPO+n], mem[srcPO:srcPO+n])
	if err := a.Free(p); err != nil {
		return Nil, err
	}
	return newPtr, nil
}

// Calloc allocates zeroed memory for nmemb elements of size bytes each.
// It reports an overflow error instead of allocating if nmemb*size
// overflows (spec §7 error kind 2 / law L5).
func (a *Allocator) Calloc(nmemb, size int) (Ptr, error) {
	if nmemb < 0 || size < 0 {
		return Nil, fmt.Errorf("brkalloc: negative nmemb=%d or size=%d", nmemb, size)
	}
	if nmemb == 0 || size == 0 {
		return a.Malloc(0)
	}
	total := nmemb * size
	if total/nmemb != size {
		return Nil, fmt.Errorf("brkalloc: calloc overflow: %d * %d", nmemb, size)
	}
	p, err := a.Malloc(total)
	if err != nil || p == Nil {
		return Nil, err
	}
	b := a.Bytes(p)
	for i := range b {
		b[i] = 0
	}
	return p, nil
}

// Stats reports the allocator's live bookkeeping counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Kind:       a.strat.kind(),
		Allocs:     a.allocs,
		Frees:      a.frees,
		LiveBlocks: a.allocs - a.frees,
		LiveBytes:  a.liveBytes,
		HeapBytes:  int(a.heapSize()),
	}
}

// def is the package-level default Allocator backing the free functions
// below, lazily initialized on first use (spec §5 and §6.2's init()).
// There is exactly one per process, matching the reference's global
// allocator state; there is no mutex guarding it (no thread safety, by
// design — see spec.md Non-goals).
var def *Allocator

// Init (re)creates the package-level default Allocator as an Implicit
// allocator with default settings. InitWithConfig offers the same thing
// for a caller that wants Segregated or a custom Region.
func Init() error {
	return InitWithConfig(Config{Kind: Implicit})
}

// InitWithConfig (re)creates the package-level default Allocator per cfg.
func InitWithConfig(cfg Config) error {
	a, err := NewAllocator(cfg)
	if err != nil {
		return err
	}
	def = a
	return nil
}

func defaultAllocator() (*Allocator, error) {
	if def == nil {
		if err := Init(); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// Malloc is the package-level form of (*Allocator).Malloc, operating on
// the lazily-initialized default allocator.
func Malloc(size int) (Ptr, error) {
	a, err := defaultAllocator()
	if err != nil {
		return Nil, err
	}
	return a.Malloc(size)
}

// Free is the package-level form of (*Allocator).Free.
func Free(p Ptr) error {
	a, err := defaultAllocator()
	if err != nil {
		return err
	}
	return a.Free(p)
}

// Realloc is the package-level form of (*Allocator).Realloc.
func Realloc(p Ptr, size int) (Ptr, error) {
	a, err := defaultAllocator()
	if err != nil {
		return Nil, err
	}
	return a.Realloc(p, size)
}

// Calloc is the package-level form of (*Allocator).Calloc.
func Calloc(nmemb, size int) (Ptr, error) {
	a, err := defaultAllocator()
	if err != nil {
		return Nil, err
	}
	return a.Calloc(nmemb, size)
}
