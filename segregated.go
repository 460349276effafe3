// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import "github.com/cznic/mathutil"

const (
	// numClasses is the number of segregated size-class buckets (spec
	// §3.4).
	numClasses = 16

	// segMinBlock is the smallest block the segregated variant ever
	// hands out or splits off: header(4) + pad(4) + footer(4), rounded
	// up to an alignment unit, with room to spare for the pred/succ
	// offsets a free block of this size overlays onto its payload.
	// Chosen to equal the reference's "32 bytes with 8-byte pointers"
	// even though this module's free-list links are 4-byte offsets
	// (Design Notes §9) rather than real pointers — the extra bytes
	// are unused padding in a minimal free block, traded for keeping
	// every block size a multiple of align.
	segMinBlock = 32

	// segHeadSize is the size of each of the 16 fixed size-class head
	// records laid down at the very start of the heap (spec §3.2).
	segHeadSize = segMinBlock
)

// segregatedStrategy implements the segregated-fits layout: sixteen
// size-classed circular doubly-linked free lists threaded through the
// payload area of free blocks, LIFO insertion, first-fit search across
// ascending classes.
type segregatedStrategy struct{}

func (segregatedStrategy) kind() Kind           { return Segregated }
func (segregatedStrategy) minBlockSize() uint32 { return segMinBlock }

// adjustedSize rounds a payload request up to a block size that always
// keeps every block's payload 16-byte aligned: 12 bytes of
// header+pad+footer overhead (spec §3.1), rounded up to a whole alignment
// unit, floored at segMinBlock.
func (segregatedStrategy) adjustedSize(n int) uint32 {
	a := roundUp(uint32(n)+12, align)
	if a < segMinBlock {
		a = segMinBlock
	}
	return a
}

// classOf returns the size class (spec §3.4) a block of the given size
// belongs to: the index of the highest set bit of size, adjusted down by
// one when size is an exact power of two (so the half-open interval
// (2^(i+4), 2^(i+5)] includes its own upper power-of-two bound in the
// lower class), clamped to [0, numClasses-1].
func classOf(size uint32) int {
	hi := mathutil.BitLen(int(size)) - 1
	if size&(size-1) == 0 {
		hi--
	}
	idx := hi - 4
	switch {
	case idx < 0:
		return 0
	case idx > numClasses-1:
		return numClasses - 1
	default:
		return idx
	}
}

// bootstrap lays down the 16 size-class head slots (each a self-linked,
// allocated dummy block) followed by the prologue — spec §4.B's
// segregated layout — then leaves the epilogue for the first extendHeap
// call to write.
func (segregatedStrategy) bootstrap(a *Allocator) error {
	headsBytes := uint32(numClasses) * segHeadSize
	if _, err := a.region.Extend(int(headsBytes + sentinelSize)); err != nil {
		return err
	}
	mem := a.mem()
	for i := uint32(0); i < numClasses; i++ {
		off := i * segHeadSize
		a.heads[i] = off
		writeHeader(mem, off, segHeadSize, true)
		writeFooter(mem, off, segHeadSize, true)
		setPredOff(mem, off, off)
		setSuccOff(mem, off, off)
	}
	a.heapStart = headsBytes
	writeHeader(mem, a.heapStart, sentinelSize, true)
	writeFooter(mem, a.heapStart, sentinelSize, true)
	a.epilogueOff = a.heapStart + sentinelSize
	return nil
}

// findFit walks class lists from classOf(asize) upward, returning the
// first block encountered whose size satisfies asize — first-fit within
// each class, ascending across classes on a miss (spec §4.F2).
func (segregatedStrategy) findFit(a *Allocator, asize uint32) (uint32, bool) {
	mem := a.mem()
	for i := classOf(asize); i < numClasses; i++ {
		head := a.heads[i]
		for cur := succOff(mem, head); cur != head; cur = succOff(mem, cur) {
			if blockSize(mem, cur) >= asize {
				return cur, true
			}
		}
	}
	return 0, false
}

// detach splices a free block out of its size-class list (spec §4.F2's
// remove primitive): b.pred.succ = b.succ; b.succ.pred = b.pred.
func (segregatedStrategy) detach(a *Allocator, off uint32) {
	mem := a.mem()
	p := predOff(mem, off)
	s := succOff(mem, off)
	setSuccOff(mem, p, s)
	setPredOff(mem, s, p)
}

// attach splices a free block into the front of its size class's list
// (spec §4.F2's insert primitive, LIFO): b.pred = head; b.succ =
// head.succ; head.succ.pred = b; head.succ = b.
func (segregatedStrategy) attach(a *Allocator, off uint32) {
	mem := a.mem()
	head := a.heads[classOf(blockSize(mem, off))]
	oldSucc := succOff(mem, head)
	setPredOff(mem, off, head)
	setSuccOff(mem, off, oldSucc)
	setPredOff(mem, oldSucc, off)
	setSuccOff(mem, head, off)
}
