// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

// implicitMinBlock is the smallest block the implicit variant ever hands
// out or splits off: header + footer + 8 bytes of payload, one alignment
// unit in all.
const implicitMinBlock = align

// implicitStrategy implements the boundary-tag implicit free list: every
// block in the heap, free or allocated, is visited in address order; a
// block's free-ness is read from its alloc bit, there is no separate
// free-list structure.
type implicitStrategy struct{}

func (implicitStrategy) kind() Kind           { return Implicit }
func (implicitStrategy) minBlockSize() uint32 { return implicitMinBlock }

// adjustedSize rounds a payload request up to a block size that always
// keeps every block's payload 16-byte aligned: 8 bytes of header+footer
// overhead, rounded up to a whole alignment unit.
func (implicitStrategy) adjustedSize(n int) uint32 {
	a := roundUp(uint32(n)+2*wordSize, align)
	if a < implicitMinBlock {
		a = implicitMinBlock
	}
	return a
}

// bootstrap lays down [4-byte pad][prologue header][prologue footer]
// [epilogue header] — spec §4.B's implicit layout — then leaves the
// epilogue for the first extendHeap call to overwrite and extend past.
func (implicitStrategy) bootstrap(a *Allocator) error {
	if _, err := a.region.Extend(4 * wordSize); err != nil {
		return err
	}
	mem := a.mem()
	const prologueOff = wordSize
	writeHeader(mem, prologueOff, sentinelSize, true)
	writeFooter(mem, prologueOff, sentinelSize, true)
	a.heapStart = prologueOff
	a.epilogueOff = prologueOff + sentinelSize
	writeHeader(mem, a.epilogueOff, 0, true)
	return nil
}

// findFit is a linear first-fit scan from the prologue to the epilogue
// (spec §4.F1). The prologue itself is visited and trivially skipped
// because it is always marked allocated.
func (implicitStrategy) findFit(a *Allocator, asize uint32) (uint32, bool) {
	mem := a.mem()
	for off := a.heapStart; ; {
		size := blockSize(mem, off)
		if size == 0 {
			return 0, false
		}
		if !blockAlloc(mem, off) && size >= asize {
			return off, true
		}
		off = nextOff(mem, off)
	}
}

func (implicitStrategy) detach(a *Allocator, off uint32) {}
func (implicitStrategy) attach(a *Allocator, off uint32) {}
