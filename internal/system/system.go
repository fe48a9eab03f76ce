// Package system implements CacheSystem, the single-core three-level cache
// hierarchy with inclusion-policy-driven eviction cascades and hardware
// prefetch injection (spec.md §4.4).
package system

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math/rand"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/cachelevel"
	"cachesim/internal/prefetch"
	"cachesim/internal/snapshot"
)

// AccessResult is the three-level path's returned record (spec.md §4.4).
type AccessResult struct {
	L1Hit           bool
	L2Hit           bool
	L3Hit           bool
	MemoryAccess    bool
	Writebacks      []uint64
	PrefetchesIssued int
}

// CacheSystem is one core's (or the whole machine's, in single-core mode)
// L1d/L1i/L2/L3 hierarchy plus the shared prefetcher that watches its L1
// misses.
type CacheSystem struct {
	l1d *cachelevel.Level
	l1i *cachelevel.Level
	l2  *cachelevel.Level
	l3  *cachelevel.Level // nil when absent

	inclusion cacheconfig.InclusionPolicy
	pf        *prefetch.Prefetcher

	// prefetchedAddresses tracks line addresses installed speculatively but
	// not yet touched by a demand access, for usefulness accounting
	// (spec.md §4.5).
	prefetchedAddresses map[uint64]struct{}
}

// New builds a CacheSystem from a validated HierarchyConfig. rng seeds any
// RANDOM/BRRIP replacement engines; pass nil to use a fixed default seed.
func New(cfg *cacheconfig.HierarchyConfig, rng *rand.Rand) (*CacheSystem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l1d, err := cachelevel.New("L1d", cfg.L1D, rng)
	if err != nil {
		return nil, err
	}
	l1i, err := cachelevel.New("L1i", cfg.L1I, rng)
	if err != nil {
		return nil, err
	}
	l2, err := cachelevel.New("L2", cfg.L2, rng)
	if err != nil {
		return nil, err
	}
	var l3 *cachelevel.Level
	if cfg.HasL3() {
		l3, err = cachelevel.New("L3", cfg.L3, rng)
		if err != nil {
			return nil, err
		}
	}
	lineSize := cfg.L1D.LineSize
	return &CacheSystem{
		l1d:                  l1d,
		l1i:                  l1i,
		l2:                   l2,
		l3:                   l3,
		inclusion:            cfg.Inclusion,
		pf:                   prefetch.New(cfg.Prefetch.Kind, cfg.Prefetch.Degree, lineSize),
		prefetchedAddresses:  make(map[uint64]struct{}),
	}, nil
}

func (s *CacheSystem) L1D() *cachelevel.Level { return s.l1d }
func (s *CacheSystem) L1I() *cachelevel.Level { return s.l1i }
func (s *CacheSystem) L2() *cachelevel.Level  { return s.l2 }
func (s *CacheSystem) L3() *cachelevel.Level  { return s.l3 }
func (s *CacheSystem) Prefetcher() *prefetch.Prefetcher { return s.pf }

// AccessData performs a demand data access through L1d, falling back to
// L2/L3/memory. pc is forwarded to the prefetcher for STRIDE/ADAPTIVE.
func (s *CacheSystem) AccessData(address uint64, isWrite bool, pc uint64) AccessResult {
	return s.accessHierarchy(s.l1d, address, isWrite, pc)
}

// AccessInstruction performs a demand fetch through L1i. Instruction streams
// are never writes and carry no PC-keyed prefetcher state of their own in
// this engine (spec.md §4.9: icache routes to L1i in single-core mode).
func (s *CacheSystem) AccessInstruction(address uint64) AccessResult {
	return s.accessHierarchy(s.l1i, address, false, 0)
}

func (s *CacheSystem) noteDemandHit(address uint64) {
	if _, was := s.prefetchedAddresses[address]; was {
		s.pf.RecordUseful()
		delete(s.prefetchedAddresses, address)
	}
}

func (s *CacheSystem) accessHierarchy(l1 *cachelevel.Level, address uint64, isWrite bool, pc uint64) AccessResult {
	var result AccessResult

	info := l1.Access(address, isWrite)
	if info.Result == cachelevel.Hit {
		s.noteDemandHit(address)
		result.L1Hit = true
		return result
	}
	s.propagateEviction(&result, info, s.l2)

	if s.l2 == nil {
		result.MemoryAccess = true
		return result
	}
	l2info := s.l2.Access(address, false)
	if l2info.Result == cachelevel.Hit {
		s.noteDemandHit(address)
		result.L2Hit = true
		if s.inclusion == cacheconfig.Exclusive {
			s.l2.Invalidate(address) // line migrates up to L1
		}
		l1.Install(address, isWrite)
		return result
	}
	s.propagateEviction(&result, l2info, s.l3)

	if s.l3 == nil {
		result.MemoryAccess = true
		s.issuePrefetch(address, pc, &result)
		s.l2.Install(address, isWrite)
		l1.Install(address, isWrite)
		return result
	}
	l3info := s.l3.Access(address, false)
	if l3info.Result == cachelevel.Hit {
		s.noteDemandHit(address)
		result.L3Hit = true
		if s.inclusion == cacheconfig.Exclusive {
			s.l3.Invalidate(address)
		}
		s.l2.Install(address, isWrite)
		l1.Install(address, isWrite)
		return result
	}
	result.MemoryAccess = true
	if l3info.WasDirty {
		result.Writebacks = append(result.Writebacks, l3info.EvictedAddress)
	}
	if s.inclusion == cacheconfig.Inclusive && l3info.HadEviction && l3info.WasDirty {
		s.backInvalidate(l3info.EvictedAddress)
	}
	s.issuePrefetch(address, pc, &result)
	s.l3.Install(address, isWrite)
	s.l2.Install(address, isWrite)
	l1.Install(address, isWrite)
	return result
}

// propagateEviction handles a miss's victim per spec.md §4.4 step 2/4: a
// dirty victim under Inclusive/NINE is recorded as a writeback; under
// Exclusive the victim moves down into next (nil at the bottom of the
// hierarchy means memory, i.e. nothing further to install).
func (s *CacheSystem) propagateEviction(result *AccessResult, info cachelevel.AccessInfo, next *cachelevel.Level) {
	if !info.HadEviction {
		return
	}
	switch s.inclusion {
	case cacheconfig.Inclusive, cacheconfig.NINE:
		if info.WasDirty {
			result.Writebacks = append(result.Writebacks, info.EvictedAddress)
		}
	case cacheconfig.Exclusive:
		if next != nil {
			next.Install(info.EvictedAddress, info.WasDirty)
		} else if info.WasDirty {
			result.Writebacks = append(result.Writebacks, info.EvictedAddress)
		}
	}
}

// backInvalidate removes an evicted L3 line from every upper level, the
// Inclusive-mode containment rule of spec.md §3 invariant 3 / §4.4 step 6.
func (s *CacheSystem) backInvalidate(address uint64) {
	s.l2.Invalidate(address)
	s.l1d.Invalidate(address)
	s.l1i.Invalidate(address)
}

// issuePrefetch requests speculative addresses on a demand miss and installs
// each into L2 (never L1), provided it is not already resident in L1d or L2
// (spec.md §4.5's single-core injection policy).
func (s *CacheSystem) issuePrefetch(triggerAddress, pc uint64, result *AccessResult) {
	addrs := s.pf.OnMiss(triggerAddress, pc)
	for _, a := range addrs {
		if s.l1d.IsPresent(a) || (s.l2 != nil && s.l2.IsPresent(a)) {
			continue
		}
		if s.l2 != nil {
			s.l2.Install(a, false)
		}
		s.prefetchedAddresses[a] = struct{}{}
	}
	result.PrefetchesIssued += len(addrs)
}

// Snapshot returns every level's per-(set,way) state, for the final
// cache-state facade of spec.md §6.3.
func (s *CacheSystem) Snapshot(core int) []snapshot.CoreCacheSnapshot {
	out := make([]snapshot.CoreCacheSnapshot, 0, 4)
	levels := []*cachelevel.Level{s.l1d, s.l1i, s.l2, s.l3}
	for _, l := range levels {
		if l == nil {
			continue
		}
		out = append(out, snapshot.CoreCacheSnapshot{
			Core:    core,
			Level:   l.Name(),
			NumSets: l.NumSets(),
			NumWays: l.NumWays(),
			Lines:   l.Snapshot(),
		})
	}
	return out
}
