// Package cachelevel implements one set-associative cache level (spec.md
// §4.3): access/install/invalidate, coherence-state plumbing for the
// coherence-aware caller, and the stats/snapshot facade it exposes.
package cachelevel

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math/rand"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/cacheline"
	"cachesim/internal/replacement"
	"cachesim/internal/snapshot"
)

// Result classifies the outcome of an Access/Install call.
type Result uint8

const (
	Hit Result = iota
	Miss
	MissWithEviction
)

// AccessInfo reports what happened on one Access or Install call (spec.md
// §4.3).
type AccessInfo struct {
	Result         Result
	WasDirty       bool
	EvictedAddress uint64
	HadEviction    bool
}

// Counters is the raw per-level statistics accumulator (spec.md §3's
// CacheStats, pre-aggregation). Compulsory/Capacity/Conflict are optional 3C
// classification counters; this implementation does not attempt 3C
// classification (it would require tracking every address's access history
// indefinitely) and leaves them at zero, which is a valid, if coarse, value
// for the optional fields.
type Counters struct {
	Hits          uint64
	Misses        uint64
	Writebacks    uint64
	Invalidations uint64
	Compulsory    uint64
	Capacity      uint64
	Conflict      uint64
}

// HitRate returns Hits/(Hits+Misses), or 0 when there have been no accesses.
func (c Counters) HitRate() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(total)
}

// Level is one set-associative cache level.
type Level struct {
	name       string
	cfg        *cacheconfig.CacheConfig
	sets       []cacheline.Set
	repl       *replacement.Engine
	accessTime uint64
	stats      Counters
}

// New constructs a Level named name (used only for snapshot labeling, e.g.
// "L1d") from a validated CacheConfig.
func New(name string, cfg *cacheconfig.CacheConfig, rng *rand.Rand) (*Level, error) {
	repl, err := replacement.New(cfg.Replacement, cfg.Assoc, rng)
	if err != nil {
		return nil, err
	}
	plruBits := replacement.PLRUBitCount(cfg.Replacement, cfg.Assoc)
	sets := make([]cacheline.Set, cfg.NumSets)
	for i := range sets {
		sets[i] = cacheline.NewSet(cfg.Assoc, plruBits)
	}
	return &Level{name: name, cfg: cfg, sets: sets, repl: repl}, nil
}

func (l *Level) Name() string                      { return l.name }
func (l *Level) Config() *cacheconfig.CacheConfig   { return l.cfg }
func (l *Level) Stats() Counters                    { return l.stats }
func (l *Level) AccessTime() uint64                 { return l.accessTime }

func (l *Level) tick() uint64 {
	l.accessTime++
	return l.accessTime
}

func (l *Level) setFor(index uint64) *cacheline.Set { return &l.sets[index] }

// evict runs the shared victim-selection + bookkeeping used by both Access
// misses and Install misses: select a victim, record eviction/writeback
// state, and return the way to install into.
func (l *Level) evict(set *cacheline.Set, index uint64) (way int, hadEviction, wasDirty bool, evictedAddress uint64) {
	way = l.repl.SelectVictim(set)
	if set.Lines[way].Valid {
		hadEviction = true
		wasDirty = set.Lines[way].Dirty
		evictedAddress = l.cfg.Decoder.Rebuild(set.Lines[way].Tag, index)
		if wasDirty {
			l.stats.Writebacks++
		}
	}
	return
}

// Access performs a demand access (spec.md §4.3). On hit it bumps Hits,
// updates replacement state, and sets the dirty bit on writes. On miss it
// bumps Misses, evicts a victim if needed (bumping Writebacks iff the victim
// was dirty), and installs the new line with dirty=isWrite.
func (l *Level) Access(address uint64, isWrite bool) AccessInfo {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	counter := l.tick()
	if way := set.FindWay(tag); way >= 0 {
		l.stats.Hits++
		l.repl.OnAccess(set, way, counter)
		if isWrite {
			set.Lines[way].Dirty = true
		}
		return AccessInfo{Result: Hit}
	}
	l.stats.Misses++
	way, hadEviction, wasDirty, evictedAddress := l.evict(set, index)
	set.Lines[way].Install(tag, isWrite)
	set.Lines[way].State = initialStateFor(isWrite)
	l.repl.OnInsert(set, way, counter)
	result := Miss
	if hadEviction {
		result = MissWithEviction
	}
	return AccessInfo{Result: result, WasDirty: wasDirty, EvictedAddress: evictedAddress, HadEviction: hadEviction}
}

// Install propagates a fill from a lower level (spec.md §4.3): it is not a
// demand access, so it never touches Hits/Misses. If the line is already
// present, its dirty bit is OR'd with isDirty and replacement state updates
// as on a hit; otherwise it is installed as a miss would be (victim
// eviction/writeback accounting still applies, since that eviction is real).
func (l *Level) Install(address uint64, isDirty bool) AccessInfo {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	counter := l.tick()
	if way := set.FindWay(tag); way >= 0 {
		set.Lines[way].Dirty = set.Lines[way].Dirty || isDirty
		l.repl.OnAccess(set, way, counter)
		return AccessInfo{Result: Hit}
	}
	way, hadEviction, wasDirty, evictedAddress := l.evict(set, index)
	set.Lines[way].Install(tag, isDirty)
	set.Lines[way].State = initialStateFor(isDirty)
	l.repl.OnInsert(set, way, counter)
	result := Miss
	if hadEviction {
		result = MissWithEviction
	}
	return AccessInfo{Result: result, WasDirty: wasDirty, EvictedAddress: evictedAddress, HadEviction: hadEviction}
}

// InstallWithState is Install, followed by setting the initial MESI state
// explicitly (used by the coherence-aware caller on a fill, spec.md §4.3).
func (l *Level) InstallWithState(address uint64, state cacheline.State) AccessInfo {
	info := l.Install(address, state == cacheline.Modified)
	l.SetCoherenceState(address, state)
	return info
}

func initialStateFor(dirty bool) cacheline.State {
	if dirty {
		return cacheline.Modified
	}
	return cacheline.Exclusive
}

// Invalidate clears valid/dirty/state for address if a matching valid line
// exists, bumping Invalidations. It is infallible: a miss is a silent no-op.
func (l *Level) Invalidate(address uint64) {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	if way := set.FindWay(tag); way >= 0 {
		set.Lines[way].Invalidate()
		l.stats.Invalidations++
	}
}

// IsPresent reports whether address has a valid resident line.
func (l *Level) IsPresent(address uint64) bool {
	tag, index, _ := l.cfg.Decoder.Split(address)
	return l.setFor(index).FindWay(tag) >= 0
}

// IsDirty reports whether address's resident line (if any) is dirty.
func (l *Level) IsDirty(address uint64) bool {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	if way := set.FindWay(tag); way >= 0 {
		return set.Lines[way].Dirty
	}
	return false
}

// SetCoherenceState idempotently upgrades/downgrades address's coherence
// state on a hit; a miss is a no-op (spec.md §4.3).
func (l *Level) SetCoherenceState(address uint64, state cacheline.State) {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	if way := set.FindWay(tag); way >= 0 {
		set.Lines[way].State = state
	}
}

// State returns address's current coherence state, or Invalid if absent.
func (l *Level) State(address uint64) cacheline.State {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	if way := set.FindWay(tag); way >= 0 {
		return set.Lines[way].State
	}
	return cacheline.Invalid
}

// DowngradeToShared implements the M->S coherence transition: if address is
// Modified, its dirty bit is cleared (the caller is responsible for the
// logical write-back this represents) and its state becomes Shared. A line
// in any other state, or absent, is left untouched.
func (l *Level) DowngradeToShared(address uint64) {
	tag, index, _ := l.cfg.Decoder.Split(address)
	set := l.setFor(index)
	way := set.FindWay(tag)
	if way < 0 || set.Lines[way].State != cacheline.Modified {
		return
	}
	set.Lines[way].Dirty = false
	set.Lines[way].State = cacheline.Shared
}

// Snapshot returns a CacheLineSnapshot for every (set, way) in the level.
func (l *Level) Snapshot() []snapshot.CacheLine {
	out := make([]snapshot.CacheLine, 0, len(l.sets)*l.cfg.Assoc)
	for s := range l.sets {
		for w := range l.sets[s].Lines {
			line := l.sets[s].Lines[w]
			out = append(out, snapshot.CacheLine{
				Set:           s,
				Way:           w,
				Valid:         line.Valid,
				Tag:           line.Tag,
				CoherenceChar: line.State.Char(),
				Dirty:         line.Dirty,
			})
		}
	}
	return out
}

// NumSets and NumWays expose the level's geometry for snapshot labeling.
func (l *Level) NumSets() int { return len(l.sets) }
func (l *Level) NumWays() int { return l.cfg.Assoc }
