// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import (
	"math"
	"testing"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, kind Kind) *Allocator {
	t.Helper()
	a, err := NewAllocator(Config{Kind: kind, ChunkSize: 4096})
	require.NoError(t, err)
	return a
}

func TestMallocZero(t *testing.T) {
	for _, kind := range []Kind{Implicit, Segregated} {
		a := newTestAllocator(t, kind)
		p, err := a.Malloc(0)
		require.NoError(t, err)
		assert.Equal(t, Nil, p)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	assert.NoError(t, a.Free(Nil))
}

func TestMallocWritePattern(t *testing.T) {
	for _, kind := range []Kind{Implicit, Segregated} {
		a := newTestAllocator(t, kind)
		p, err := a.Malloc(100)
		require.NoError(t, err)
		require.NotEqual(t, Nil, p)

		b := a.Bytes(p)
		require.GreaterOrEqual(t, len(b), 100)
		for i := range b {
			b[i] = byte(i)
		}
		for i, v := range b {
			assert.Equal(t, byte(i), v)
		}
		require.NoError(t, a.CheckHeap())
	}
}

func TestPayloadIsSixteenByteAligned(t *testing.T) {
	for _, kind := range []Kind{Implicit, Segregated} {
		a := newTestAllocator(t, kind)
		for _, size := range []int{1, 7, 8, 9, 15, 16, 17, 100, 4096} {
			p, err := a.Malloc(size)
			require.NoError(t, err)
			off := p.off()
			po := a.payloadOff(off)
			assert.Zero(t, po%align, "size=%d payload offset %#x not aligned", size, po)
		}
	}
}

func TestCallocZeroesMemory(t *testing.T) {
	for _, kind := range []Kind{Implicit, Segregated} {
		a := newTestAllocator(t, kind)
		p, err := a.Malloc(64)
		require.NoError(t, err)
		b := a.Bytes(p)
		for i := range b {
			b[i] = 0xff
		}
		require.NoError(t, a.Free(p))

		q, err := a.Calloc(16, 4)
		require.NoError(t, err)
		for _, v := range a.Bytes(q) {
			assert.Zero(t, v)
		}
	}
}

func TestCallocOverflow(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	_, err := a.Calloc(math.MaxInt64, 2)
	assert.Error(t, err)
}

func TestMallocRejectsUnrepresentableSize(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	_, err := a.Malloc(math.MaxInt32 * math.MaxInt32)
	assert.Error(t, err)
}

func TestReallocGrowPreservesData(t *testing.T) {
	for _, kind := range []Kind{Implicit, Segregated} {
		a := newTestAllocator(t, kind)
		p, err := a.Malloc(32)
		require.NoError(t, err)
		b := a.Bytes(p)
		for i := range b {
			b[i] = byte(i + 1)
		}

		q, err := a.Realloc(p, 256)
		require.NoError(t, err)
		require.NotEqual(t, Nil, q)
		nb := a.Bytes(q)
		for i := 0; i < len(b); i++ {
			assert.Equal(t, byte(i+1), nb[i])
		}
		require.NoError(t, a.CheckHeap())
	}
}

func TestReallocShrinkInPlaceSegregated(t *testing.T) {
	a := newTestAllocator(t, Segregated)
	p, err := a.Malloc(512)
	require.NoError(t, err)
	off := p.off()

	q, err := a.Realloc(p, 16)
	require.NoError(t, err)
	assert.Equal(t, p, q, "in-place shrink must not move the payload")
	assert.Equal(t, off, q.off())
	require.NoError(t, a.CheckHeap())
}

func TestReallocNilIsMalloc(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	p, err := a.Realloc(Nil, 32)
	require.NoError(t, err)
	assert.NotEqual(t, Nil, p)
}

func TestReallocZeroIsFree(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	p, err := a.Malloc(32)
	require.NoError(t, err)
	q, err := a.Realloc(p, 0)
	require.NoError(t, err)
	assert.Equal(t, Nil, q)
}

func TestStatsTracksLiveBlocks(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	p1, err := a.Malloc(16)
	require.NoError(t, err)
	p2, err := a.Malloc(16)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Stats().LiveBlocks)

	require.NoError(t, a.Free(p1))
	assert.Equal(t, 1, a.Stats().LiveBlocks)
	require.NoError(t, a.Free(p2))
	assert.Equal(t, 0, a.Stats().LiveBlocks)
}

func TestCoalesceAcrossFrees(t *testing.T) {
	a := newTestAllocator(t, Implicit)
	var ps []Ptr
	for i := 0; i < 8; i++ {
		p, err := a.Malloc(32)
		require.NoError(t, err)
		ps = append(ps, p)
	}
	for _, p := range ps {
		require.NoError(t, a.Free(p))
	}
	require.NoError(t, a.CheckHeap())

	big, err := a.Malloc(8 * 48)
	require.NoError(t, err)
	require.NotEqual(t, Nil, big)
	require.NoError(t, a.CheckHeap())
}

// randomizedFillVerifyFree exercises a fill/verify/shuffle/free cycle
// driven by a seeded PRNG, mirroring the teacher's own test1/test2.
func randomizedFillVerifyFree(t *testing.T, kind Kind, quota, maxSize int) {
	t.Helper()
	a := newTestAllocator(t, kind)

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(42)

	var ptrs []Ptr
	var sizes []int
	rem := quota
	for rem > 0 {
		size := rng.Next()%maxSize + 1
		rem -= size
		p, err := a.Malloc(size)
		require.NoError(t, err)
		b := a.Bytes(p)
		for i := 0; i < size; i++ {
			b[i] = byte(rng.Next())
		}
		ptrs = append(ptrs, p)
		sizes = append(sizes, size)
	}

	require.NoError(t, a.CheckHeap())

	rng.Seed(42)
	for i, p := range ptrs {
		size := sizes[i]
		rng.Next() // the draw the fill loop used for size
		b := a.Bytes(p)
		for j := 0; j < size; j++ {
			assert.Equal(t, byte(rng.Next()), b[j], "ptr %d byte %d", i, j)
		}
	}

	for i := len(ptrs) - 1; i >= 0; i-- {
		j := rng.Next() % (i + 1)
		ptrs[i], ptrs[j] = ptrs[j], ptrs[i]
	}
	for _, p := range ptrs {
		require.NoError(t, a.Free(p))
	}
	require.NoError(t, a.CheckHeap())
	assert.Zero(t, a.Stats().LiveBlocks)
	assert.Zero(t, a.Stats().LiveBytes)
}

func TestRandomizedImplicitSmall(t *testing.T)   { randomizedFillVerifyFree(t, Implicit, 64<<10, 128) }
func TestRandomizedImplicitBig(t *testing.T)     { randomizedFillVerifyFree(t, Implicit, 256<<10, 4096) }
func TestRandomizedSegregatedSmall(t *testing.T) { randomizedFillVerifyFree(t, Segregated, 64<<10, 128) }
func TestRandomizedSegregatedBig(t *testing.T)   { randomizedFillVerifyFree(t, Segregated, 256<<10, 4096) }

func TestPackageLevelDefaultAllocator(t *testing.T) {
	require.NoError(t, Init())
	p, err := Malloc(64)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	require.NoError(t, Free(p))
}
