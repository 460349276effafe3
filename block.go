// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import "unsafe"

// A block is a contiguous byte range inside the arena whose first word is a
// header and whose last word (at off+size-wordSize) is a footer; see §3.1.
// Callers address blocks by the byte offset of their header, a blockOff.
// This is the only file in the module (besides package region) that touches
// unsafe.Pointer — per design, the unsafe surface is confined to block
// encoding, everything else works with typed uint32 offsets.

const (
	wordSize = 4
	allocBit = 1
)

func loadWord(mem []byte, off uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(&mem[off]))
}

func storeWord(mem []byte, off uint32, w uint32) {
	*(*uint32)(unsafe.Pointer(&mem[off])) = w
}

// pack returns the header/footer word for size and alloc. size must be a
// multiple of 8; its low 3 bits carry no information (bit 0 is alloc, bits
// 1-2 are reserved and always zero).
func pack(size uint32, alloc bool) uint32 {
	if size&7 != 0 {
		panic("brkalloc: block size not a multiple of 8")
	}
	if alloc {
		return size | allocBit
	}
	return size
}

func sizeOf(w uint32) uint32 { return w &^ 7 }
func allocOf(w uint32) bool  { return w&allocBit != 0 }

func headerAt(mem []byte, off uint32) uint32 { return loadWord(mem, off) }

func writeHeader(mem []byte, off, size uint32, alloc bool) {
	storeWord(mem, off, pack(size, alloc))
}

// footerOff returns the byte offset of size's footer word within a block
// starting at off. Callers must pass the block's *new* size if it changed;
// writeFooter does not read the header to discover it.
func footerOff(off, size uint32) uint32 { return off + size - wordSize }

func writeFooter(mem []byte, off, size uint32, alloc bool) {
	storeWord(mem, footerOff(off, size), pack(size, alloc))
}

func blockSize(mem []byte, off uint32) uint32 { return sizeOf(headerAt(mem, off)) }
func blockAlloc(mem []byte, off uint32) bool  { return allocOf(headerAt(mem, off)) }

// nextOff returns the offset of the block physically following off.
func nextOff(mem []byte, off uint32) uint32 { return off + blockSize(mem, off) }

// prevFooterOff returns the offset of the footer word of the block
// physically preceding off.
func prevFooterOff(off uint32) uint32 { return off - wordSize }

// prevOff returns the offset of the block physically preceding off. Valid
// only when off is not the heap's first block (the prologue sentinel
// guarantees this for every real block).
func prevOff(mem []byte, off uint32) uint32 {
	return off - sizeOf(loadWord(mem, prevFooterOff(off)))
}

// Free-block payload overlay (segregated variant only): the first two
// words of a free block's payload area are pred/succ offsets threading the
// circular free list for its size class. Segregated blocks place the
// payload 8 bytes into the block (header + 4 bytes of pad), which is where
// pred/succ start; implicit blocks place it right after the header and
// never read pred/succ.

func predOff(mem []byte, off uint32) uint32 { return loadWord(mem, off+8) }
func succOff(mem []byte, off uint32) uint32 { return loadWord(mem, off+12) }

func setPredOff(mem []byte, off, v uint32) { storeWord(mem, off+8, v) }
func setSuccOff(mem []byte, off, v uint32) { storeWord(mem, off+12, v) }
