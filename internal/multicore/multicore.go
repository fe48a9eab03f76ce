// Package multicore implements MultiCoreCacheSystem (spec.md §4.8/§4.9/§9):
// per-core L1+DTLB+prefetcher, a shared L2/L3, thread-to-core binding, the
// MESI read/write paths, and the false-sharing tracker of spec.md §4.7.
package multicore

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math/rand"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/cacheline"
	"cachesim/internal/cachelevel"
	"cachesim/internal/coherence"
	"cachesim/internal/prefetch"
	"cachesim/internal/snapshot"
	"cachesim/internal/tlb"
)

// FalseSharingEvent is one recorded access to a tracked line, per spec.md §3.
type FalseSharingEvent struct {
	ThreadID   uint32
	ByteOffset int
	IsWrite    bool
	File       string
	Line       uint32
}

type coreState struct {
	l1  *cachelevel.Level
	dtlb *tlb.TLB
	pf  *prefetch.Prefetcher

	prefetchedAddresses map[uint64]struct{}
}

// AccessResult reports which level (if any) satisfied a per-core demand
// access, mirroring system.AccessResult but for the coherence-aware path.
type AccessResult struct {
	L1Hit        bool
	L2Hit        bool
	L3Hit        bool
	MemoryAccess bool
}

// MultiCoreCacheSystem is the spec's C9 component: per-core L1 + DTLB +
// prefetcher, process-wide shared L2/L3, a coherence controller, and a
// false-sharing tracker.
type MultiCoreCacheSystem struct {
	cores     []*coreState
	l2        *cachelevel.Level
	l3        *cachelevel.Level
	coherence *coherence.Controller
	inclusion cacheconfig.InclusionPolicy
	lineSize  uint64

	threadToCore map[uint32]int
	nextCore     int

	lineAccesses      map[uint64][]FalseSharingEvent
	falseSharingLines map[uint64]struct{}
}

// New builds a MultiCoreCacheSystem with numCores cores, each given its own
// L1d config and DTLB geometry, sharing the L2/L3 described by cfg.
func New(cfg *cacheconfig.HierarchyConfig, numCores int, dtlbSets uint64, dtlbAssoc int, rng *rand.Rand) (*MultiCoreCacheSystem, error) {
	if err := cfg.Validate(); err != nil {
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
	ctrl := coherence.New(numCores)
	m := &MultiCoreCacheSystem{
		cores:             make([]*coreState, numCores),
		l2:                l2,
		l3:                l3,
		coherence:         ctrl,
		inclusion:         cfg.Inclusion,
		lineSize:          cfg.L1D.LineSize,
		threadToCore:      make(map[uint32]int),
		lineAccesses:      make(map[uint64][]FalseSharingEvent),
		falseSharingLines: make(map[uint64]struct{}),
	}
	for c := 0; c < numCores; c++ {
		l1, err := cachelevel.New("L1d", cfg.L1D, rng)
		if err != nil {
			return nil, err
		}
		m.cores[c] = &coreState{
			l1:                  l1,
			dtlb:                tlb.New(dtlbSets, dtlbAssoc),
			pf:                  prefetch.New(cfg.Prefetch.Kind, cfg.Prefetch.Degree, cfg.L1D.LineSize),
			prefetchedAddresses: make(map[uint64]struct{}),
		}
		ctrl.SetPeer(c, l1)
	}
	return m, nil
}

func (m *MultiCoreCacheSystem) NumCores() int { return len(m.cores) }
func (m *MultiCoreCacheSystem) L2() *cachelevel.Level { return m.l2 }
func (m *MultiCoreCacheSystem) L3() *cachelevel.Level { return m.l3 }
func (m *MultiCoreCacheSystem) CoherenceInvalidations() uint64 { return m.coherence.Invalidations() }
func (m *MultiCoreCacheSystem) L1(core int) *cachelevel.Level  { return m.cores[core].l1 }
func (m *MultiCoreCacheSystem) DTLB(core int) *tlb.TLB          { return m.cores[core].dtlb }
func (m *MultiCoreCacheSystem) Prefetcher(core int) *prefetch.Prefetcher { return m.cores[core].pf }

// CoreFor assigns (or returns the previously assigned) core for threadID via
// stable round-robin, per spec.md §4.8.
func (m *MultiCoreCacheSystem) CoreFor(threadID uint32) int {
	if c, ok := m.threadToCore[threadID]; ok {
		return c
	}
	c := m.nextCore % len(m.cores)
	m.nextCore++
	m.threadToCore[threadID] = c
	return c
}

func (m *MultiCoreCacheSystem) lineAddr(address uint64) uint64 {
	return address &^ (m.lineSize - 1)
}

// trackFalseSharing records a demand access on lineAddr and flags false
// sharing the first time all three conditions of spec.md §4.7 hold:
// >=2 distinct threads, >=2 distinct byte offsets, >=1 write among the
// recorded events.
func (m *MultiCoreCacheSystem) trackFalseSharing(address uint64, threadID uint32, isWrite bool, file string, line uint32) {
	lineAddr := m.lineAddr(address)
	ev := FalseSharingEvent{
		ThreadID:   threadID,
		ByteOffset: int(address - lineAddr),
		IsWrite:    isWrite,
		File:       file,
		Line:       line,
	}
	m.lineAccesses[lineAddr] = append(m.lineAccesses[lineAddr], ev)
	if _, already := m.falseSharingLines[lineAddr]; already {
		return
	}
	threads := map[uint32]struct{}{}
	offsets := map[int]struct{}{}
	anyWrite := false
	for _, e := range m.lineAccesses[lineAddr] {
		threads[e.ThreadID] = struct{}{}
		offsets[e.ByteOffset] = struct{}{}
		anyWrite = anyWrite || e.IsWrite
	}
	if len(threads) >= 2 && len(offsets) >= 2 && anyWrite {
		m.falseSharingLines[lineAddr] = struct{}{}
	}
}

// FalseSharingCount returns the number of distinct line addresses flagged,
// per spec.md §3 invariant 6 ("counts distinct line addresses, not events").
func (m *MultiCoreCacheSystem) FalseSharingCount() int { return len(m.falseSharingLines) }

// FalseSharingLines returns the flagged line addresses and their accumulated
// event history, for the report facade of spec.md §6.3.
func (m *MultiCoreCacheSystem) FalseSharingLines() map[uint64][]FalseSharingEvent {
	out := make(map[uint64][]FalseSharingEvent, len(m.falseSharingLines))
	for addr := range m.falseSharingLines {
		out[addr] = m.lineAccesses[addr]
	}
	return out
}

// fillThroughSharedLevels ensures L2/L3 hold lineAddr (a non-demand fill),
// cascading to memory if absent from both. It returns whether L2 or L3
// supplied the hit, used only for SystemAccessResult-style reporting.
func (m *MultiCoreCacheSystem) fillThroughSharedLevels(lineAddr uint64, isWrite bool) (l2Hit, l3Hit, memoryAccess bool) {
	if m.l2.IsPresent(lineAddr) {
		return true, false, false
	}
	if m.l3 != nil && m.l3.IsPresent(lineAddr) {
		m.l2.Install(lineAddr, isWrite)
		return false, true, false
	}
	if m.l3 != nil {
		m.l3.Install(lineAddr, isWrite)
	}
	m.l2.Install(lineAddr, isWrite)
	return false, false, true
}

// AccessData performs a demand data access from threadID (spec.md §4.8).
// pc feeds the issuing core's STRIDE/ADAPTIVE prefetcher; file/line feed the
// false-sharing tracker (empty file skips tracking, as for any other
// per-source-line stat, spec.md §4.9).
func (m *MultiCoreCacheSystem) AccessData(threadID uint32, address uint64, isWrite bool, pc uint64, file string, line uint32) AccessResult {
	core := m.CoreFor(threadID)
	cs := m.cores[core]
	lineAddr := m.lineAddr(address)

	if file != "" {
		m.trackFalseSharing(address, threadID, isWrite, file, line)
	}
	cs.dtlb.Access(address)

	if isWrite {
		return m.accessWrite(core, cs, lineAddr, pc)
	}
	return m.accessRead(core, cs, lineAddr, pc)
}

func (m *MultiCoreCacheSystem) accessRead(core int, cs *coreState, lineAddr, pc uint64) AccessResult {
	info := cs.l1.Access(lineAddr, false)
	if info.Result == cachelevel.Hit && cs.l1.State(lineAddr) != cacheline.Invalid {
		m.noteDemandHit(cs, lineAddr)
		return AccessResult{L1Hit: true}
	}
	if info.HadEviction {
		m.coherence.Evict(core, m.lineAddr(info.EvictedAddress))
	}
	m.issuePrefetch(core, cs, lineAddr, pc)

	outcome := m.coherence.RequestRead(core, lineAddr)
	state := cacheline.Exclusive
	if outcome.FoundPeer {
		state = cacheline.Shared
	}
	l2Hit, l3Hit, memoryAccess := m.fillThroughSharedLevels(lineAddr, false)
	cs.l1.InstallWithState(lineAddr, state)
	return AccessResult{L2Hit: l2Hit, L3Hit: l3Hit, MemoryAccess: memoryAccess}
}

func (m *MultiCoreCacheSystem) accessWrite(core int, cs *coreState, lineAddr, pc uint64) AccessResult {
	m.coherence.RequestExclusive(core, lineAddr)
	if info := cs.l1.Access(lineAddr, true); info.Result == cachelevel.Hit {
		cs.l1.SetCoherenceState(lineAddr, cacheline.Modified)
		m.noteDemandHit(cs, lineAddr)
		return AccessResult{L1Hit: true}
	} else if info.HadEviction {
		m.coherence.Evict(core, m.lineAddr(info.EvictedAddress))
	}
	m.issuePrefetch(core, cs, lineAddr, pc)
	l2Hit, l3Hit, memoryAccess := m.fillThroughSharedLevels(lineAddr, true)
	cs.l1.InstallWithState(lineAddr, cacheline.Modified)
	return AccessResult{L2Hit: l2Hit, L3Hit: l3Hit, MemoryAccess: memoryAccess}
}

func (m *MultiCoreCacheSystem) noteDemandHit(cs *coreState, lineAddr uint64) {
	if _, was := cs.prefetchedAddresses[lineAddr]; was {
		cs.pf.RecordUseful()
		delete(cs.prefetchedAddresses, lineAddr)
	}
}

// issuePrefetch requests speculative addresses from the issuing core's
// prefetcher and installs each per spec.md §4.8's "Prefetch injection
// (multi-core)" rule: fill L2/L3 (non-demand), then install into L1[c] as
// Shared if any peer holds a copy, Exclusive otherwise; never Modified.
func (m *MultiCoreCacheSystem) issuePrefetch(core int, cs *coreState, triggerLineAddr, pc uint64) {
	for _, a := range cs.pf.OnMiss(triggerLineAddr, pc) {
		if cs.l1.IsPresent(a) {
			continue
		}
		m.fillThroughSharedLevels(a, false)
		shared := m.coherence.Sharers(a).Cardinality() > 0
		state := cacheline.Exclusive
		if shared {
			state = cacheline.Shared
		}
		cs.l1.InstallWithState(a, state)
		cs.prefetchedAddresses[a] = struct{}{}
	}
}

// Snapshot returns every core's L1 plus the shared L2/L3 state.
func (m *MultiCoreCacheSystem) Snapshot() []snapshot.CoreCacheSnapshot {
	var out []snapshot.CoreCacheSnapshot
	for c, cs := range m.cores {
		out = append(out, snapshot.CoreCacheSnapshot{
			Core: c, Level: "L1d", NumSets: cs.l1.NumSets(), NumWays: cs.l1.NumWays(), Lines: cs.l1.Snapshot(),
		})
	}
	out = append(out, snapshot.CoreCacheSnapshot{Core: -1, Level: "L2", NumSets: m.l2.NumSets(), NumWays: m.l2.NumWays(), Lines: m.l2.Snapshot()})
	if m.l3 != nil {
		out = append(out, snapshot.CoreCacheSnapshot{Core: -1, Level: "L3", NumSets: m.l3.NumSets(), NumWays: m.l3.NumWays(), Lines: m.l3.Snapshot()})
	}
	return out
}
