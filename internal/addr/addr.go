// Package addr implements the address decoder: splitting a 64-bit address
// into tag/index/offset fields for a given line size and set count, and
// rebuilding an address from a tag and set index.
package addr

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "fmt"

// IsPowerOfTwo reports whether n is a nonzero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)). Callers must only call this with a power of
// two; it is not validated here, as validation happens once at construction.
func Log2(n uint64) uint {
	var bits uint
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}

// Decoder splits and rebuilds addresses for one cache geometry (line size and
// set count). It holds no mutable state and is safe for concurrent use,
// though the simulator itself is single-threaded (see spec.md §5).
type Decoder struct {
	lineSize   uint64
	numSets    uint64
	offsetBits uint
	indexBits  uint
	tagBits    uint
}

// NewDecoder validates lineSize and numSets (both must be nonzero powers of
// two) and returns a Decoder for them. addrBits is the assumed address width
// (64, per spec.md §4.1: "addresses are treated as 64-bit unsigned").
func NewDecoder(lineSize, numSets uint64) (*Decoder, error) {
	if lineSize == 0 {
		return nil, fmt.Errorf("line size must be nonzero")
	}
	if !IsPowerOfTwo(lineSize) {
		return nil, fmt.Errorf("line size %d is not a power of two", lineSize)
	}
	if numSets == 0 {
		return nil, fmt.Errorf("set count must be nonzero")
	}
	if !IsPowerOfTwo(numSets) {
		return nil, fmt.Errorf("set count %d is not a power of two", numSets)
	}
	offsetBits := Log2(lineSize)
	indexBits := Log2(numSets)
	const addrBits = 64
	if offsetBits+indexBits > addrBits {
		return nil, fmt.Errorf("offset bits (%d) + index bits (%d) exceed %d-bit address space", offsetBits, indexBits, addrBits)
	}
	return &Decoder{
		lineSize:   lineSize,
		numSets:    numSets,
		offsetBits: offsetBits,
		indexBits:  indexBits,
		tagBits:    addrBits - offsetBits - indexBits,
	}, nil
}

// OffsetBits, IndexBits, TagBits expose the derived field widths (spec.md §3).
func (d *Decoder) OffsetBits() uint { return d.offsetBits }
func (d *Decoder) IndexBits() uint  { return d.indexBits }
func (d *Decoder) TagBits() uint    { return d.tagBits }
func (d *Decoder) NumSets() uint64  { return d.numSets }
func (d *Decoder) LineSize() uint64 { return d.lineSize }

func (d *Decoder) offsetMask() uint64 {
	if d.offsetBits == 0 {
		return 0
	}
	return (uint64(1) << d.offsetBits) - 1
}

func (d *Decoder) indexMask() uint64 {
	if d.indexBits == 0 {
		return 0
	}
	return (uint64(1) << d.indexBits) - 1
}

// Offset returns the byte-within-line offset of addr.
func (d *Decoder) Offset(address uint64) uint64 {
	return address & d.offsetMask()
}

// Index returns the set index of addr.
func (d *Decoder) Index(address uint64) uint64 {
	return (address >> d.offsetBits) & d.indexMask()
}

// Tag returns the tag bits of addr.
func (d *Decoder) Tag(address uint64) uint64 {
	return address >> (d.offsetBits + d.indexBits)
}

// Split decomposes address into its tag, index and offset fields in one pass.
func (d *Decoder) Split(address uint64) (tag, index, offset uint64) {
	offset = d.Offset(address)
	index = d.Index(address)
	tag = address >> (d.offsetBits + d.indexBits)
	return
}

// Rebuild reconstructs the line-aligned address (offset bits zero) of tag and
// index, the inverse of Split/Tag+Index (spec.md §4.1, and the round-trip law
// in §8 invariant 8).
func (d *Decoder) Rebuild(tag, index uint64) uint64 {
	return (tag << (d.offsetBits + d.indexBits)) | (index << d.offsetBits)
}

// LineAddress returns the line-aligned address containing address, i.e. the
// address with its offset bits cleared.
func (d *Decoder) LineAddress(address uint64) uint64 {
	tag, index, _ := d.Split(address)
	return d.Rebuild(tag, index)
}
