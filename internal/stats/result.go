package stats

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cachesim/internal/cacheconfig"
	"cachesim/internal/cachelevel"
	"cachesim/internal/multicore"
	"cachesim/internal/prefetch"
	"cachesim/internal/processor"
	"cachesim/internal/snapshot"
	"cachesim/internal/system"
	"cachesim/internal/tlb"
)

// CacheStats is one level's aggregated counters plus derived hit rate
// (spec.md §6.3).
type CacheStats struct {
	Hits       uint64
	Misses     uint64
	HitRate    float64
	Writebacks uint64
	Compulsory uint64
	Capacity   uint64
	Conflict   uint64
}

func cacheStatsOf(c cachelevel.Counters) CacheStats {
	return CacheStats{
		Hits: c.Hits, Misses: c.Misses, HitRate: c.HitRate(),
		Writebacks: c.Writebacks, Compulsory: c.Compulsory, Capacity: c.Capacity, Conflict: c.Conflict,
	}
}

// TLBStats is the hit/miss facade for one TLB (spec.md §6.3's
// TLBHierarchyStats.dtlb/itlb).
type TLBStats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
}

func tlbStatsOf(s tlb.Stats) TLBStats {
	return TLBStats{Hits: s.Hits, Misses: s.Misses, HitRate: s.HitRate()}
}

// TLBHierarchyStats bundles the data and (placeholder) instruction TLB
// stats; ITLB is left at its zero value since the engine does not model
// instruction-side translation beyond this placeholder (spec.md §7, §9).
type TLBHierarchyStats struct {
	DTLB TLBStats
	ITLB TLBStats
}

// PrefetchStats is the accuracy-bearing facade over prefetch.Stats.
type PrefetchStats struct {
	Issued   uint64
	Useful   uint64
	Useless  uint64
	Accuracy float64
}

func prefetchStatsOf(s prefetch.Stats) PrefetchStats {
	return PrefetchStats{Issued: s.Issued, Useful: s.Useful, Useless: s.Useless, Accuracy: s.Accuracy()}
}

// FalseSharingReport is one flagged line's full event history (spec.md §6.3).
type FalseSharingReport struct {
	LineAddress uint64
	Events      []multicore.FalseSharingEvent
}

// MultiCoreStats is the per-core facade of spec.md §6.3.
type MultiCoreStats struct {
	L1PerCore             []CacheStats
	L2                     CacheStats
	L3                     CacheStats
	HasL3                  bool
	CoherenceInvalidations uint64
	FalseSharingEvents     int
	PrefetchPerCore        []PrefetchStats
}

// RunResult is the top-level engine->writer bundle of spec.md §6.3.
type RunResult struct {
	L1D CacheStats
	L1I CacheStats
	L2  CacheStats
	L3  CacheStats
	HasL3 bool

	MultiCore *MultiCoreStats

	TLB           TLBHierarchyStats
	FalseSharing  []FalseSharingReport
	HotLines      []processor.HotLine
	Prefetch      PrefetchStats
	Timing        TimingStats
	CacheSnapshot []snapshot.CoreCacheSnapshot
}

// BuildSingleCore assembles a RunResult from a completed single-core run.
// lat must be the LatencyConfig the run's HierarchyConfig was built with.
func BuildSingleCore(sys *system.CacheSystem, proc *processor.TraceProcessor, dtlb tlb.Stats, lat cacheconfig.LatencyConfig, hotLimit int) (RunResult, error) {
	l1d := sys.L1D().Stats()
	l2 := sys.L2().Stats()
	var l3Stats cachelevel.Counters
	hasL3 := sys.L3() != nil
	if hasL3 {
		l3Stats = sys.L3().Stats()
	}

	timing, err := ComputeTiming(TimingInputs{
		L1Hits:         l1d.Hits,
		L2Hits:         l2.Hits,
		L3Hits:         l3Stats.Hits,
		MemoryAccesses: memoryAccessesOf(hasL3, l3Stats, l2),
		TLBMisses:      dtlb.Misses,
		TotalAccesses:  l1d.Hits + l1d.Misses,
	}, lat)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{
		L1D:           cacheStatsOf(l1d),
		L1I:           cacheStatsOf(sys.L1I().Stats()),
		L2:            cacheStatsOf(l2),
		L3:            cacheStatsOf(l3Stats),
		HasL3:         hasL3,
		TLB:           TLBHierarchyStats{DTLB: tlbStatsOf(dtlb)},
		HotLines:      proc.HotLines(hotLimit),
		Prefetch:      prefetchStatsOf(sys.Prefetcher().Stats()),
		Timing:        timing,
		CacheSnapshot: sys.Snapshot(0),
	}, nil
}

// memoryAccessesOf approximates the run's memory-access count as the
// misses that reached the last resident level (L3 if present, else L2).
func memoryAccessesOf(hasL3 bool, l3 cachelevel.Counters, l2 cachelevel.Counters) uint64 {
	if hasL3 {
		return l3.Misses
	}
	return l2.Misses
}

// BuildMultiCore assembles a RunResult from a completed multi-core run. lat
// must be the LatencyConfig the run's HierarchyConfig was built with.
func BuildMultiCore(sys *multicore.MultiCoreCacheSystem, proc *processor.MultiCoreTraceProcessor, lat cacheconfig.LatencyConfig, hotLimit int) (RunResult, error) {
	numCores := sys.NumCores()
	perCore := make([]CacheStats, numCores)
	perCorePrefetch := make([]PrefetchStats, numCores)
	var l1Hits, l1Misses, dtlbMisses uint64
	for c := 0; c < numCores; c++ {
		st := sys.L1(c).Stats()
		perCore[c] = cacheStatsOf(st)
		perCorePrefetch[c] = prefetchStatsOf(sys.Prefetcher(c).Stats())
		l1Hits += st.Hits
		l1Misses += st.Misses
		dtlbMisses += sys.DTLB(c).Stats().Misses
	}
	l2 := sys.L2().Stats()
	var l3Stats cachelevel.Counters
	hasL3 := sys.L3() != nil
	if hasL3 {
		l3Stats = sys.L3().Stats()
	}

	timing, err := ComputeTiming(TimingInputs{
		L1Hits:         l1Hits,
		L2Hits:         l2.Hits,
		L3Hits:         l3Stats.Hits,
		MemoryAccesses: memoryAccessesOf(hasL3, l3Stats, l2),
		TLBMisses:      dtlbMisses,
		TotalAccesses:  l1Hits + l1Misses,
	}, lat)
	if err != nil {
		return RunResult{}, err
	}

	var reports []FalseSharingReport
	for addr, events := range sys.FalseSharingLines() {
		reports = append(reports, FalseSharingReport{LineAddress: addr, Events: events})
	}

	return RunResult{
		L2:    cacheStatsOf(l2),
		L3:    cacheStatsOf(l3Stats),
		HasL3: hasL3,
		MultiCore: &MultiCoreStats{
			L1PerCore:              perCore,
			L2:                     cacheStatsOf(l2),
			L3:                     cacheStatsOf(l3Stats),
			HasL3:                  hasL3,
			CoherenceInvalidations: sys.CoherenceInvalidations(),
			FalseSharingEvents:     sys.FalseSharingCount(),
			PrefetchPerCore:        perCorePrefetch,
		},
		FalseSharing:  reports,
		HotLines:      proc.HotLines(hotLimit),
		Timing:        timing,
		CacheSnapshot: sys.Snapshot(),
	}, nil
}
