// Package cacheline defines the per-line and per-set state shared by every
// cache level: MESI coherence state, validity/dirty bits, and the
// policy-agnostic metadata (LRU timestamp, RRIP counter) that the
// replacement package mutates.
package cacheline

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// State is the MESI coherence state of a cache line (spec.md glossary).
type State uint8

const (
	Invalid State = iota
	Shared
	Exclusive
	Modified
)

// Char returns the single-character code used in CacheLineSnapshot.
func (s State) Char() byte {
	switch s {
	case Shared:
		return 'S'
	case Exclusive:
		return 'E'
	case Modified:
		return 'M'
	default:
		return 'I'
	}
}

func (s State) String() string {
	switch s {
	case Shared:
		return "Shared"
	case Exclusive:
		return "Exclusive"
	case Modified:
		return "Modified"
	default:
		return "Invalid"
	}
}

// Line is one way within a CacheSet. A line created by NewSet starts
// Invalid/not-valid and becomes valid only through Install.
type Line struct {
	Valid    bool
	Tag      uint64
	Dirty    bool
	LRUTime  uint64
	RRPV     uint8 // 0..3, used only by SRRIP/BRRIP
	State    State
}

// Install fills the line with tag, marking it valid, and sets its dirty bit.
// It does not touch replacement metadata (LRUTime/RRPV); callers update that
// via the replacement package immediately after.
func (l *Line) Install(tag uint64, dirty bool) {
	l.Valid = true
	l.Tag = tag
	l.Dirty = dirty
}

// Invalidate clears valid, dirty, and resets coherence state to Invalid, per
// spec.md §3 ("CacheLine ... Lifetime").
func (l *Line) Invalidate() {
	l.Valid = false
	l.Dirty = false
	l.State = Invalid
}

// Set is one associativity bucket: A ways plus any policy-specific metadata.
// PLRUBits has length A-1 and is only meaningful when the owning level uses
// the tree-PLRU policy; it is otherwise left empty.
type Set struct {
	Lines    []Line
	PLRUBits []bool
}

// NewSet allocates a Set with the given associativity. plruBits should be
// assoc-1 when the level's replacement policy is tree-PLRU, else 0.
func NewSet(assoc int, plruBits int) Set {
	return Set{
		Lines:    make([]Line, assoc),
		PLRUBits: make([]bool, plruBits),
	}
}

// FindWay returns the way index holding tag, or -1 if no valid line matches.
// Invariant 2 (spec.md §3) guarantees at most one such way.
func (s *Set) FindWay(tag uint64) int {
	for i := range s.Lines {
		if s.Lines[i].Valid && s.Lines[i].Tag == tag {
			return i
		}
	}
	return -1
}
