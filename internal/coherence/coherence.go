// Package coherence implements the MESI coherence controller of spec.md
// §4.8: per-line sharer/owner tracking, snoop-on-read and invalidate-on-write
// semantics, holding non-owning references to each core's L1 to perform
// snoops (spec.md §9's design notes).
package coherence

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	mapset "github.com/deckarep/golang-set/v2"

	"cachesim/internal/cachelevel"
)

// L1View is the narrow, non-owning view of a core's L1d the coherence
// controller needs to perform snoops and invalidations. *cachelevel.Level
// satisfies it; a peer's actual cache is never mutated by anyone but its
// owning core except through this interface.
type L1View interface {
	IsPresent(address uint64) bool
	IsDirty(address uint64) bool
	Invalidate(address uint64)
	DowngradeToShared(address uint64)
}

// Controller tracks, per cache-line address, which cores hold a copy
// (sharers) and which core most recently took exclusive/modified ownership
// (owner). It never touches L2/L3; those are shared process-wide state
// mutated directly by whichever core's access is in flight (spec.md §5).
type Controller struct {
	peers   []L1View
	sharers map[uint64]mapset.Set[int]
	owner   map[uint64]int

	invalidations uint64
}

// New constructs a Controller watching numCores peers. SetPeer must be
// called once per core before RequestRead/RequestExclusive reference it.
func New(numCores int) *Controller {
	return &Controller{
		peers:   make([]L1View, numCores),
		sharers: make(map[uint64]mapset.Set[int]),
		owner:   make(map[uint64]int),
	}
}

// SetPeer registers core c's L1 view. Must be called for every core before
// use.
func (c *Controller) SetPeer(core int, view L1View) { c.peers[core] = view }

// Invalidations returns the running count of coherence-triggered
// invalidations (spec.md §3 invariant 6: monotonically non-decreasing).
func (c *Controller) Invalidations() uint64 { return c.invalidations }

func (c *Controller) sharerSet(lineAddr uint64) mapset.Set[int] {
	s, ok := c.sharers[lineAddr]
	if !ok {
		s = mapset.NewThreadUnsafeSet[int]()
		c.sharers[lineAddr] = s
	}
	return s
}

// ReadOutcome reports what a RequestRead snoop discovered, so the caller can
// compute the new MESI state and fetch through L2/L3/memory accordingly
// (spec.md §4.8 step 3/4).
type ReadOutcome struct {
	FoundPeer   bool
	WasModified bool
}

// RequestRead snoops every peer other than core for lineAddr (spec.md §4.8
// step 3). If a modified peer copy is found, it is downgraded to Shared
// (a logical write-back) and the invalidation counter is bumped. The caller
// still must install the line into L1[core] itself; this only updates peer
// state and sharer bookkeeping.
func (c *Controller) RequestRead(core int, lineAddr uint64) ReadOutcome {
	var out ReadOutcome
	for p, view := range c.peers {
		if p == core || view == nil || !view.IsPresent(lineAddr) {
			continue
		}
		out.FoundPeer = true
		if view.IsDirty(lineAddr) {
			out.WasModified = true
			view.DowngradeToShared(lineAddr)
		}
	}
	if out.WasModified {
		c.invalidations++
	}
	c.sharerSet(lineAddr).Add(core)
	return out
}

// RequestExclusive invalidates every peer's copy of lineAddr other than
// core, bumps the invalidation counter if any peer held one, and makes core
// the sole sharer and owner (spec.md §4.8's write path, step 1).
func (c *Controller) RequestExclusive(core int, lineAddr uint64) {
	any := false
	for p, view := range c.peers {
		if p == core || view == nil || !view.IsPresent(lineAddr) {
			continue
		}
		view.Invalidate(lineAddr)
		any = true
	}
	if any {
		c.invalidations++
	}
	c.sharers[lineAddr] = mapset.NewThreadUnsafeSet[int](core)
	c.owner[lineAddr] = core
}

// Evict removes core from lineAddr's sharer set and clears ownership if core
// was the owner, per spec.md §4.8's eviction rule. Callers invoke this when
// a core's L1 replaces a coherence-tracked line.
func (c *Controller) Evict(core int, lineAddr uint64) {
	if s, ok := c.sharers[lineAddr]; ok {
		s.Remove(core)
		if s.Cardinality() == 0 {
			delete(c.sharers, lineAddr)
		}
	}
	if o, ok := c.owner[lineAddr]; ok && o == core {
		delete(c.owner, lineAddr)
	}
}

// Sharers returns the set of cores currently believed to hold lineAddr, for
// reporting/testing. The returned set is a clone; mutating it has no effect
// on the controller.
func (c *Controller) Sharers(lineAddr uint64) mapset.Set[int] {
	if s, ok := c.sharers[lineAddr]; ok {
		return s.Clone()
	}
	return mapset.NewThreadUnsafeSet[int]()
}

var _ L1View = (*cachelevel.Level)(nil)
