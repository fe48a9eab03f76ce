// Package snapshot defines the post-run cache-state snapshot types of
// spec.md §3/§6.3. It has no dependencies so that both the level/system
// packages (which produce snapshots) and the stats facade (which aggregates
// them into a RunResult) can import it without a cycle.
package snapshot

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// CacheLine is one (set, way) entry of a post-run cache dump.
type CacheLine struct {
	Set            int
	Way            int
	Valid          bool
	Tag            uint64
	CoherenceChar  byte
	Dirty          bool
}

// CoreCacheSnapshot bundles one core's (or the shared level's, in single-core
// mode, using core=-1) line snapshots with the geometry needed to lay them
// out as a set/way grid.
type CoreCacheSnapshot struct {
	Core    int
	Level   string
	NumSets int
	NumWays int
	Lines   []CacheLine
}
