package coherence

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeL1 struct {
	present map[uint64]bool
	dirty   map[uint64]bool
}

func newFakeL1() *fakeL1 {
	return &fakeL1{present: map[uint64]bool{}, dirty: map[uint64]bool{}}
}

func (f *fakeL1) IsPresent(addr uint64) bool { return f.present[addr] }
func (f *fakeL1) IsDirty(addr uint64) bool   { return f.dirty[addr] }
func (f *fakeL1) Invalidate(addr uint64)     { delete(f.present, addr); delete(f.dirty, addr) }
func (f *fakeL1) DowngradeToShared(addr uint64) { f.dirty[addr] = false }

func TestRequestReadNoPeerNoInvalidation(t *testing.T) {
	c := New(2)
	a, b := newFakeL1(), newFakeL1()
	c.SetPeer(0, a)
	c.SetPeer(1, b)
	out := c.RequestRead(0, 0x1000)
	require.False(t, out.FoundPeer)
	require.EqualValues(t, 0, c.Invalidations())
}

func TestRequestReadDowngradesModifiedPeer(t *testing.T) {
	c := New(2)
	a, b := newFakeL1(), newFakeL1()
	c.SetPeer(0, a)
	c.SetPeer(1, b)
	b.present[0x1000] = true
	b.dirty[0x1000] = true

	out := c.RequestRead(0, 0x1000)
	require.True(t, out.FoundPeer)
	require.True(t, out.WasModified)
	require.False(t, b.dirty[0x1000])
	require.EqualValues(t, 1, c.Invalidations())
}

func TestRequestExclusiveInvalidatesAllPeers(t *testing.T) {
	c := New(3)
	peers := []*fakeL1{newFakeL1(), newFakeL1(), newFakeL1()}
	for i, p := range peers {
		c.SetPeer(i, p)
	}
	peers[1].present[0x2000] = true
	peers[2].present[0x2000] = true

	c.RequestExclusive(0, 0x2000)
	require.False(t, peers[1].present[0x2000])
	require.False(t, peers[2].present[0x2000])
	require.EqualValues(t, 1, c.Invalidations())
	require.True(t, c.Sharers(0x2000).Contains(0))
	require.Equal(t, 1, c.Sharers(0x2000).Cardinality())
}

func TestRequestExclusiveNoPeersNoInvalidation(t *testing.T) {
	c := New(2)
	c.SetPeer(0, newFakeL1())
	c.SetPeer(1, newFakeL1())
	c.RequestExclusive(0, 0x3000)
	require.EqualValues(t, 0, c.Invalidations())
}

func TestEvictClearsSharerAndOwner(t *testing.T) {
	c := New(2)
	c.SetPeer(0, newFakeL1())
	c.SetPeer(1, newFakeL1())
	c.RequestExclusive(0, 0x4000)
	c.Evict(0, 0x4000)
	require.False(t, c.Sharers(0x4000).Contains(0))
}

// S9: two distinct cores reading the same address produce no invalidations;
// a subsequent write by a third core produces >=1 invalidation.
func TestScenarioS9TwoReadsThenWriteInvalidates(t *testing.T) {
	c := New(3)
	peers := []*fakeL1{newFakeL1(), newFakeL1(), newFakeL1()}
	for i, p := range peers {
		c.SetPeer(i, p)
	}
	c.RequestRead(0, 0x5000)
	peers[0].present[0x5000] = true
	c.RequestRead(1, 0x5000)
	peers[1].present[0x5000] = true
	require.EqualValues(t, 0, c.Invalidations())

	c.RequestExclusive(2, 0x5000)
	require.GreaterOrEqual(t, c.Invalidations(), uint64(1))
}
