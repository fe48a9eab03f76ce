// Package presets holds builder functions producing CacheHierarchyConfig for
// canonical hardware targets (spec.md §6.5). Each is purely data; no
// behavior lives here, mirroring the microarchitecture database of
// internal/cpus in the engine this was adapted from.
package presets

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"sort"
	"strings"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/prefetch"
	"cachesim/internal/replacement"
)

// geometry is the per-level shape a preset supplies; associativity,
// capacity and line size, one per level, plus the inclusion policy and
// default prefetcher for that family.
type geometry struct {
	l1dKB, l1dAssoc   uint64
	l1iKB, l1iAssoc   uint64
	l2KB, l2Assoc     uint64
	l3KB, l3Assoc     uint64 // l3KB==0 means absent
	lineSize          uint64
	inclusion         cacheconfig.InclusionPolicy
	replPolicy        replacement.Policy
	defaultPrefetch   prefetch.Kind
}

func (g geometry) build() (*cacheconfig.HierarchyConfig, error) {
	l1d, err := cacheconfig.New(g.l1dKB, int(g.l1dAssoc), g.lineSize, g.replPolicy, cacheconfig.WriteBack)
	if err != nil {
		return nil, err
	}
	l1i, err := cacheconfig.New(g.l1iKB, int(g.l1iAssoc), g.lineSize, g.replPolicy, cacheconfig.ReadOnly)
	if err != nil {
		return nil, err
	}
	l2, err := cacheconfig.New(g.l2KB, int(g.l2Assoc), g.lineSize, g.replPolicy, cacheconfig.WriteBack)
	if err != nil {
		return nil, err
	}
	var l3 *cacheconfig.CacheConfig
	if g.l3KB > 0 {
		l3, err = cacheconfig.New(g.l3KB, int(g.l3Assoc), g.lineSize, g.replPolicy, cacheconfig.WriteBack)
		if err != nil {
			return nil, err
		}
	}
	return &cacheconfig.HierarchyConfig{
		L1D: l1d, L1I: l1i, L2: l2, L3: l3,
		Inclusion: g.inclusion,
		Prefetch:  cacheconfig.PrefetchConfig{Kind: g.defaultPrefetch, Degree: 2},
		Latency:   cacheconfig.DefaultLatency(),
	}, nil
}

// registry maps a canonical preset name to its geometry. Names follow the
// microarchitecture codes of the hardware database this was adapted from
// (intel-PerfSpect's internal/cpus), extended with the non-Intel families
// spec.md §6.5 names.
var registry = map[string]geometry{
	// Intel client, 10th-14th gen (Skylake-derived through Raptor Cove).
	"intel-10th-gen":  {32, 8, 32, 8, 256, 4, 0, 0, 64, cacheconfig.Inclusive, replacement.SRRIP, prefetch.Adaptive},
	"intel-11th-gen":  {48, 12, 32, 8, 512, 8, 0, 0, 64, cacheconfig.Inclusive, replacement.SRRIP, prefetch.Adaptive},
	"intel-12th-gen":  {48, 12, 32, 8, 1280, 10, 0, 0, 64, cacheconfig.NINE, replacement.SRRIP, prefetch.Adaptive},
	"intel-13th-gen":  {48, 12, 32, 8, 2048, 16, 0, 0, 64, cacheconfig.NINE, replacement.SRRIP, prefetch.Adaptive},
	"intel-14th-gen":  {48, 12, 32, 8, 2048, 16, 0, 0, 64, cacheconfig.NINE, replacement.SRRIP, prefetch.Adaptive},
	"xeon-ice-lake":        {48, 12, 32, 8, 1280, 20, 16384, 16, 64, cacheconfig.NINE, replacement.SRRIP, prefetch.Stream},
	"xeon-sapphire-rapids": {48, 12, 32, 8, 2048, 16, 65536, 16, 64, cacheconfig.NINE, replacement.SRRIP, prefetch.Stream},
	// AMD Zen / EPYC.
	"zen2":         {32, 8, 32, 8, 512, 8, 16384, 16, 64, cacheconfig.Exclusive, replacement.LRU, prefetch.Stream},
	"zen3":         {32, 8, 32, 8, 512, 8, 32768, 16, 64, cacheconfig.Exclusive, replacement.LRU, prefetch.Stream},
	"zen4":         {32, 8, 32, 8, 1024, 8, 32768, 16, 64, cacheconfig.Exclusive, replacement.LRU, prefetch.Stream},
	"epyc-milan":   {32, 8, 32, 8, 512, 8, 32768, 16, 64, cacheconfig.Exclusive, replacement.LRU, prefetch.Stream},
	"epyc-genoa":   {32, 8, 32, 8, 1024, 8, 32768, 16, 64, cacheconfig.Exclusive, replacement.LRU, prefetch.Stream},
	// Apple Silicon (published geometry, approximate: these engines never
	// disclosed their replacement policy, so LRU stands in).
	"apple-m1": {128, 8, 192, 12, 12288, 12, 0, 0, 64, cacheconfig.NINE, replacement.LRU, prefetch.Stride},
	"apple-m2": {128, 8, 192, 12, 16384, 16, 0, 0, 64, cacheconfig.NINE, replacement.LRU, prefetch.Stride},
	"apple-m3": {128, 8, 192, 12, 16384, 16, 0, 0, 64, cacheconfig.NINE, replacement.LRU, prefetch.Stride},
	// ARM server / embedded.
	"graviton3":      {64, 4, 64, 4, 1024, 8, 32768, 16, 64, cacheconfig.Exclusive, replacement.PLRU, prefetch.Stream},
	"raspberry-pi-4": {32, 4, 48, 3, 1024, 16, 0, 0, 64, cacheconfig.Inclusive, replacement.LRU, prefetch.None},
	"cortex-a53":     {32, 2, 32, 2, 1024, 16, 0, 0, 64, cacheconfig.Inclusive, replacement.Random, prefetch.None},
	"sifive-u74":     {32, 8, 32, 2, 2048, 16, 0, 0, 64, cacheconfig.Inclusive, replacement.PLRU, prefetch.None},
	"sifive-p670":    {32, 8, 32, 8, 2048, 16, 0, 0, 64, cacheconfig.NINE, replacement.PLRU, prefetch.Stride},
	// A deliberately tiny profile for worked examples and tests: L1d=1KB
	// 2-way, L1i=1KB 2-way, L2=4KB 4-way, L3=16KB 8-way, 64B lines (used by
	// every scenario in spec.md §8).
	"educational": {1, 2, 1, 2, 4, 4, 16, 8, 64, cacheconfig.Inclusive, replacement.LRU, prefetch.None},
}

// Names returns every registered preset name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs the named preset's HierarchyConfig. An unknown name is a
// DimensionError (spec.md §7: "unknown preset name").
func Build(name string) (*cacheconfig.HierarchyConfig, error) {
	g, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, cacheconfig.NewDimensionError("unknown preset %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return g.build()
}

// Educational is a convenience accessor for the tiny profile spec.md §8's
// scenarios are defined against.
func Educational() (*cacheconfig.HierarchyConfig, error) { return Build("educational") }

func init() {
	// fail fast if a registry entry is internally inconsistent (e.g. its
	// KB/assoc/line-size combination does not derive a power-of-two set
	// count); this is a developer error in the table above, not a
	// user-facing DimensionError.
	for name, g := range registry {
		if _, err := g.build(); err != nil {
			panic(fmt.Sprintf("internal/presets: preset %q has invalid geometry: %s", name, err))
		}
	}
}
