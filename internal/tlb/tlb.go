// Package tlb implements a small set-associative page translator (spec.md
// §4.6): a per-core DTLB (and, as a placeholder, ITLB counters).
package tlb

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "cachesim/internal/addr"

const pageSize = 4096

type pageEntry struct {
	valid   bool
	page    uint64
	lruTime uint64
}

// Stats tracks TLB hit/miss counts.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// HitRate returns Hits/(Hits+Misses), or 0 with no accesses.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TLB is a small set-associative page translator keyed by page = addr >>
// log2(page_size), looked up in set page % numSets (spec.md §4.6).
type TLB struct {
	numSets    uint64
	assoc      int
	sets       [][]pageEntry
	accessTime uint64
	stats      Stats
}

// New constructs a TLB with numSets sets of assoc ways each.
func New(numSets uint64, assoc int) *TLB {
	sets := make([][]pageEntry, numSets)
	for i := range sets {
		sets[i] = make([]pageEntry, assoc)
	}
	return &TLB{numSets: numSets, assoc: assoc, sets: sets}
}

func pageOf(address uint64) uint64 { return address >> addr.Log2(pageSize) }

// Access looks up address's page, installing it (evicting the LRU way) on a
// miss. It returns true on a hit.
func (t *TLB) Access(address uint64) bool {
	page := pageOf(address)
	set := t.sets[page%t.numSets]
	t.accessTime++
	for i := range set {
		if set[i].valid && set[i].page == page {
			set[i].lruTime = t.accessTime
			t.stats.Hits++
			return true
		}
	}
	t.stats.Misses++
	victim := 0
	for i := range set {
		if !set[i].valid {
			victim = i
			break
		}
		if set[i].lruTime < set[victim].lruTime {
			victim = i
		}
	}
	set[victim] = pageEntry{valid: true, page: page, lruTime: t.accessTime}
	return false
}

func (t *TLB) Stats() Stats { return t.stats }
