// Copyright 2024 The Brkalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package brkalloc

import (
	"fmt"

	"github.com/cznic/brkalloc/region"
)

// Kind selects one of the two heap layout strategies (spec §2).
type Kind int

const (
	// Implicit is the boundary-tag implicit free list with linear
	// first-fit search.
	Implicit Kind = iota
	// Segregated is the size-classed segregated fits layout.
	Segregated
)

func (k Kind) String() string {
	switch k {
	case Implicit:
		return "implicit"
	case Segregated:
		return "segregated"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	// DefaultChunkSize is the default heap-extension unit (§2 glossary).
	DefaultChunkSize = 4096
	// DefaultMaxBytes is the default ceiling on the backing arena when
	// Config.Region is left nil.
	DefaultMaxBytes = 1 << 30
)

// Config configures a new Allocator.
type Config struct {
	// Kind selects the heap layout strategy. Required.
	Kind Kind

	// ChunkSize is the default heap-extension unit. Zero selects
	// DefaultChunkSize. Must be a multiple of 8.
	ChunkSize int

	// MaxBytes bounds a default, freshly-constructed region.Arena when
	// Region is nil. Zero selects DefaultMaxBytes.
	MaxBytes int

	// Region overrides the backing store. Nil constructs a
	// region.Arena of MaxBytes capacity.
	Region region.Region
}

// Validate reports whether cfg describes a usable allocator.
func (c Config) Validate() error {
	if c.Kind != Implicit && c.Kind != Segregated {
		return fmt.Errorf("brkalloc: invalid Kind %d", int(c.Kind))
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("brkalloc: negative ChunkSize %d", c.ChunkSize)
	}
	if c.ChunkSize%8 != 0 {
		return fmt.Errorf("brkalloc: ChunkSize %d is not a multiple of 8", c.ChunkSize)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("brkalloc: negative MaxBytes %d", c.MaxBytes)
	}
	return nil
}

// Stats reports the allocator's bookkeeping counters, mirrored from the
// teacher's private allocs/bytes fields and exposed publicly.
type Stats struct {
	Kind       Kind
	Allocs     int
	Frees      int
	LiveBlocks int
	LiveBytes  int
	HeapBytes  int
}
