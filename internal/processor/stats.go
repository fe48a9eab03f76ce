package processor

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"sort"
)

// lineStats accumulates hits/misses/threads for one "{file}:{line}" key
// (spec.md §4.9). Concatenating file+":"+line is wasteful next to an
// interned (file_id, line) tuple (spec.md §9's design notes flag this), but
// this engine is not expected to process traces large enough for that to
// matter, and the string form keeps the facade trivial to report.
type lineStats struct {
	file    string
	line    uint32
	hits    uint64
	misses  uint64
	threads map[uint32]struct{}
}

// HotLine is one ranked entry of the hot_lines facade (spec.md §4.9, §6.3).
type HotLine struct {
	File       string
	Line       uint32
	Hits       uint64
	Misses     uint64
	NumThreads int
}

// sourceLineTracker is the per-source-line stats table shared by the
// single-core and multi-core trace processors.
type sourceLineTracker struct {
	byKey map[string]*lineStats
	order []string
}

func newSourceLineTracker() *sourceLineTracker {
	return &sourceLineTracker{byKey: make(map[string]*lineStats)}
}

func lineKey(file string, line uint32) string { return fmt.Sprintf("%s:%d", file, line) }

// record increments hits or misses for file:line and notes threadID.
// file=="" is skipped entirely, per spec.md §4.9.
func (t *sourceLineTracker) record(file string, line uint32, threadID uint32, hit bool) {
	if file == "" {
		return
	}
	key := lineKey(file, line)
	ls, ok := t.byKey[key]
	if !ok {
		ls = &lineStats{file: file, line: line, threads: make(map[uint32]struct{})}
		t.byKey[key] = ls
		t.order = append(t.order, key)
	}
	if hit {
		ls.hits++
	} else {
		ls.misses++
	}
	ls.threads[threadID] = struct{}{}
}

// hotLines returns the limit entries with the highest miss counts, sorted
// descending, ties broken by insertion order (spec.md §4.9).
func (t *sourceLineTracker) hotLines(limit int) []HotLine {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.byKey[keys[i]].misses > t.byKey[keys[j]].misses
	})
	if limit > 0 && limit < len(keys) {
		keys = keys[:limit]
	}
	out := make([]HotLine, 0, len(keys))
	for _, k := range keys {
		ls := t.byKey[k]
		out = append(out, HotLine{File: ls.file, Line: ls.line, Hits: ls.hits, Misses: ls.misses, NumThreads: len(ls.threads)})
	}
	return out
}

// IntrinsicCounters tracks the non-demand-access bookkeeping of spec.md
// §4.9: software prefetch issue counts, memory intrinsic dispatch counts,
// vector/atomic sub-access counters, and cross-line access counts.
type IntrinsicCounters struct {
	SWPrefetchIssued uint64
	MemcpyCount      uint64
	MemmoveCount     uint64
	MemsetCount      uint64
	VectorAccesses   uint64
	CrossLineAccesses uint64
	AtomicLoads      uint64
	AtomicStores     uint64
	AtomicRMW        uint64
	AtomicCmpxchg    uint64
	ICacheFetches    uint64
}
