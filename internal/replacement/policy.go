// Package replacement implements the pluggable cache replacement policies
// (spec.md §4.2): LRU, tree-PLRU, RANDOM, SRRIP and BRRIP. Each policy
// exposes the same two operations used by a CacheLevel: selecting a victim
// way in a set, and updating per-line/per-set metadata on a hit or insert.
package replacement

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math/rand"
	"strings"

	"cachesim/internal/addr"
	"cachesim/internal/cacheline"
)

// Policy enumerates the supported replacement policies.
type Policy uint8

const (
	LRU Policy = iota
	PLRU
	Random
	SRRIP
	BRRIP
)

func (p Policy) String() string {
	switch p {
	case LRU:
		return "lru"
	case PLRU:
		return "plru"
	case Random:
		return "random"
	case SRRIP:
		return "srrip"
	case BRRIP:
		return "brrip"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts the policy names used on the CLI (§6.2) and in the
// preset builders, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru":
		return LRU, nil
	case "plru", "tree-plru", "treeplru":
		return PLRU, nil
	case "random", "rand":
		return Random, nil
	case "srrip":
		return SRRIP, nil
	case "brrip":
		return BRRIP, nil
	default:
		return 0, fmt.Errorf("unknown replacement policy %q", s)
	}
}

const (
	rrpvMax = 3
	// srripInsertRRPV is the RRPV assigned to a newly inserted line by SRRIP.
	srripInsertRRPV = 2
	// brripLongRRPV / brripShortRRPV are BRRIP's two insertion RRPVs; long is
	// used with probability (1 - 1/brripShortProbDenom).
	brripLongRRPV  = 3
	brripShortRRPV = 2
	// brripShortProbDenom pins the "insert RRPV=2" probability at 1/32, per
	// spec.md §4.2 and the reproducibility note in §9's open questions. An
	// implementer may parameterize this; Engine exposes it as a field so
	// callers can (see NewWithBRRIPProbability).
	brripShortProbDenom = 32
)

// Engine dispatches victim selection and access-update to the configured
// policy for one cache level. It is not safe for concurrent use (the engine
// as a whole is single-threaded per spec.md §5).
type Engine struct {
	policy      Policy
	assoc       int
	rng         *rand.Rand
	brripProbN  int // numerator of "insert short RRPV" probability
	brripProbD  int // denominator
}

// New constructs a replacement Engine for a level with the given
// associativity. rng may be nil, in which case a package-local source seeded
// deterministically (see NewRand) is used; pass your own for reproducible
// simulation runs. PLRU requires assoc to be a power of two (spec.md §4.2).
func New(policy Policy, assoc int, rng *rand.Rand) (*Engine, error) {
	if assoc <= 0 {
		return nil, fmt.Errorf("associativity must be positive, got %d", assoc)
	}
	if policy == PLRU && !addr.IsPowerOfTwo(uint64(assoc)) {
		return nil, fmt.Errorf("tree-PLRU requires a power-of-two associativity, got %d", assoc)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) //nolint:gosec // simulation determinism, not security
	}
	return &Engine{
		policy:     policy,
		assoc:      assoc,
		rng:        rng,
		brripProbN: 1,
		brripProbD: brripShortProbDenom,
	}, nil
}

// Policy returns the configured policy.
func (e *Engine) Policy() Policy { return e.policy }

// SelectVictim returns the way index to evict from set. Invalid lines always
// win (smallest way index among them), per spec.md §4.2.
func (e *Engine) SelectVictim(set *cacheline.Set) int {
	if way, ok := firstInvalid(set); ok {
		return way
	}
	switch e.policy {
	case LRU:
		return e.selectVictimLRU(set)
	case PLRU:
		return e.selectVictimPLRU(set)
	case Random:
		return e.rng.Intn(e.assoc)
	case SRRIP, BRRIP:
		return e.selectVictimRRIP(set)
	default:
		return 0
	}
}

// OnAccess updates policy metadata for a hit at way, using accessCounter as
// the level's monotonic access-time source (for LRU timestamps).
func (e *Engine) OnAccess(set *cacheline.Set, way int, accessCounter uint64) {
	switch e.policy {
	case LRU:
		set.Lines[way].LRUTime = accessCounter
	case PLRU:
		updatePLRU(set, way, e.assoc)
	case SRRIP, BRRIP:
		set.Lines[way].RRPV = 0
	case Random:
		// no per-access metadata
	}
}

// OnInsert sets the insertion metadata for a freshly-installed line at way
// (a miss, after SelectVictim chose this way).
func (e *Engine) OnInsert(set *cacheline.Set, way int, accessCounter uint64) {
	switch e.policy {
	case LRU:
		set.Lines[way].LRUTime = accessCounter
	case PLRU:
		updatePLRU(set, way, e.assoc)
	case SRRIP:
		set.Lines[way].RRPV = srripInsertRRPV
	case BRRIP:
		if e.rng.Intn(e.brripProbD) < e.brripProbN {
			set.Lines[way].RRPV = brripShortRRPV
		} else {
			set.Lines[way].RRPV = brripLongRRPV
		}
	case Random:
		// no per-access metadata
	}
}

func firstInvalid(set *cacheline.Set) (int, bool) {
	for i := range set.Lines {
		if !set.Lines[i].Valid {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) selectVictimLRU(set *cacheline.Set) int {
	victim := 0
	best := set.Lines[0].LRUTime
	for i := 1; i < len(set.Lines); i++ {
		if set.Lines[i].LRUTime < best {
			best = set.Lines[i].LRUTime
			victim = i
		}
	}
	return victim
}

// selectVictimRRIP implements SRRIP/BRRIP's shared eviction rule: pick the
// first line (smallest way index) with RRPV==3; if none exists, age every
// line (RRPV++ saturating at 3) and retry.
func (e *Engine) selectVictimRRIP(set *cacheline.Set) int {
	for {
		for i := range set.Lines {
			if set.Lines[i].RRPV == rrpvMax {
				return i
			}
		}
		for i := range set.Lines {
			if set.Lines[i].RRPV < rrpvMax {
				set.Lines[i].RRPV++
			}
		}
	}
}

// selectVictimPLRU walks the binary decision tree: bit==1 directs the search
// left, bit==0 directs it right (spec.md §4.2).
func (e *Engine) selectVictimPLRU(set *cacheline.Set) int {
	lo, hi := 0, e.assoc
	node := 0
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if set.PLRUBits[node] {
			hi = mid
			node = 2*node + 1
		} else {
			lo = mid
			node = 2*node + 2
		}
	}
	return lo
}

// updatePLRU flips the bits along the path to way so that future victim
// searches are directed away from it (the "opposite direction" update rule
// of spec.md §4.2).
func updatePLRU(set *cacheline.Set, way int, assoc int) {
	lo, hi := 0, assoc
	node := 0
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if way < mid {
			set.PLRUBits[node] = false // direct future search right, away from way
			hi = mid
			node = 2*node + 1
		} else {
			set.PLRUBits[node] = true // direct future search left, away from way
			lo = mid
			node = 2*node + 2
		}
	}
}

// PLRUBitCount returns the number of internal tree-PLRU bits needed for the
// given associativity (A-1), or 0 for any other policy.
func PLRUBitCount(policy Policy, assoc int) int {
	if policy != PLRU {
		return 0
	}
	return assoc - 1
}
