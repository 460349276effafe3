// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import "testing"

func TestPackRoundTrip(t *testing.T) {
	mem := make([]byte, 64)
	writeHeader(mem, 0, 32, true)
	if got := blockSize(mem, 0); got != 32 {
		t.Fatalf("size: got %d, want 32", got)
	}
	if !blockAlloc(mem, 0) {
		t.Fatal("expected allocated")
	}

	writeHeader(mem, 0, 40, false)
	if got := blockSize(mem, 0); got != 40 {
		t.Fatalf("size: got %d, want 40", got)
	}
	if blockAlloc(mem, 0) {
		t.Fatal("expected free")
	}
}

func TestPackPanicsOnMisalignedSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for size not a multiple of 8")
		}
	}()
	pack(13, true)
}

func TestHeaderFooterAgree(t *testing.T) {
	mem := make([]byte, 64)
	const off = 16
	const size = 24
	writeHeader(mem, off, size, true)
	writeFooter(mem, off, size, true)
	if h, f := headerAt(mem, off), headerAt(mem, footerOff(off, size)); h != f {
		t.Fatalf("header %#x != footer %#x", h, f)
	}
}

func TestNextPrevOff(t *testing.T) {
	mem := make([]byte, 64)
	const a = 8
	const asize = 16
	const b = a + asize
	const bsize = 24
	writeHeader(mem, a, asize, false)
	writeFooter(mem, a, asize, false)
	writeHeader(mem, b, bsize, false)
	writeFooter(mem, b, bsize, false)

	if got := nextOff(mem, a); got != b {
		t.Fatalf("nextOff: got %#x, want %#x", got, b)
	}
	if got := prevOff(mem, b); got != a {
		t.Fatalf("prevOff: got %#x, want %#x", got, a)
	}
}

func TestPredSuccOverlay(t *testing.T) {
	mem := make([]byte, 64)
	const off = 0
	setPredOff(mem, off, 100)
	setSuccOff(mem, off, 200)
	if got := predOff(mem, off); got != 100 {
		t.Fatalf("predOff: got %d, want 100", got)
	}
	if got := succOff(mem, off); got != 200 {
		t.Fatalf("succOff: got %d, want 200", got)
	}
}
