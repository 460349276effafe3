// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

// Arena is the default Region: a single Go-owned byte slice, reserved at
// its full capacity up front so the underlying array never moves, with a
// high-water mark tracking how much of it is committed. This models an
// sbrk-like host without any OS dependency, which is what makes it the
// right default for tests and for callers that don't care about real
// memory mapping.
type Arena struct {
	buf  []byte
	size int
}

// NewArena reserves capacity bytes and returns an empty Arena (Size() ==
// 0) backed by them. capacity is the hard ceiling Extend can ever reach;
// exceeding it reports exhaustion rather than growing further, simulating
// a finite backing store.
func NewArena(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

func (a *Arena) Extend(n int) (int, error) {
	old := a.size
	if n < 0 {
		panic("region: negative Extend")
	}
	if old+n > len(a.buf) {
		return 0, &ErrExhausted{Requested: n, Available: len(a.buf) - old}
	}
	a.size += n
	return old, nil
}

func (a *Arena) Hi() int {
	if a.size == 0 {
		return -1
	}
	return a.size - 1
}

func (a *Arena) Size() int { return a.size }

func (a *Arena) Bytes() []byte { return a.buf[:a.size] }

// Cap reports the arena's fixed reservation ceiling.
func (a *Arena) Cap() int { return len(a.buf) }
