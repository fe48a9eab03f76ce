package system

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/prefetch"
	"cachesim/internal/replacement"

	"github.com/stretchr/testify/require"
)

func educationalConfig(t *testing.T) *cacheconfig.HierarchyConfig {
	t.Helper()
	l1d, err := cacheconfig.New(1, 2, 64, replacement.LRU, cacheconfig.WriteBack)
	require.NoError(t, err)
	l1i, err := cacheconfig.New(1, 2, 64, replacement.LRU, cacheconfig.ReadOnly)
	require.NoError(t, err)
	l2, err := cacheconfig.New(4, 4, 64, replacement.LRU, cacheconfig.WriteBack)
	require.NoError(t, err)
	l3, err := cacheconfig.New(16, 8, 64, replacement.LRU, cacheconfig.WriteBack)
	require.NoError(t, err)
	return &cacheconfig.HierarchyConfig{
		L1D: l1d, L1I: l1i, L2: l2, L3: l3,
		Inclusion: cacheconfig.Inclusive,
		Prefetch:  cacheconfig.PrefetchConfig{Kind: prefetch.None, Degree: 1},
		Latency:   cacheconfig.DefaultLatency(),
	}
}

// S1: sequential access of 10 bytes within one 64B line, all reads -> 9
// hits, 1 miss at L1d.
func TestScenarioS1SequentialWithinOneLine(t *testing.T) {
	sys, err := New(educationalConfig(t), nil)
	require.NoError(t, err)
	for a := uint64(0x1000); a < 0x1000+10; a++ {
		sys.AccessData(a, false, 0)
	}
	st := sys.L1D().Stats()
	require.EqualValues(t, 9, st.Hits)
	require.EqualValues(t, 1, st.Misses)
	require.InDelta(t, 0.9, st.HitRate(), 1e-9)
}

// S3: 100 reads to the same address -> 99 hits, 1 miss.
func TestScenarioS3RepeatedSameAddress(t *testing.T) {
	sys, err := New(educationalConfig(t), nil)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		sys.AccessData(0x1000, false, 0)
	}
	st := sys.L1D().Stats()
	require.EqualValues(t, 99, st.Hits)
	require.EqualValues(t, 1, st.Misses)
}

// S2: 8 strided reads across distinct lines (one per L1d set, 8 sets total),
// then a repeat pass should all hit.
func TestScenarioS2StridedRoundTrip(t *testing.T) {
	sys, err := New(educationalConfig(t), nil)
	require.NoError(t, err)
	addrs := make([]uint64, 8)
	for i := range addrs {
		addrs[i] = 0x1000 + uint64(i)*0x40
	}
	for _, a := range addrs {
		sys.AccessData(a, false, 0)
	}
	st := sys.L1D().Stats()
	require.EqualValues(t, 8, st.Misses)
	require.EqualValues(t, 0, st.Hits)

	for _, a := range addrs {
		sys.AccessData(a, false, 0)
	}
	st = sys.L1D().Stats()
	require.EqualValues(t, 8, st.Hits)
	require.EqualValues(t, 8, st.Misses)
	require.InDelta(t, 0.5, st.HitRate(), 1e-9)
}

func TestL1MissFillsL2AndMemory(t *testing.T) {
	sys, err := New(educationalConfig(t), nil)
	require.NoError(t, err)
	res := sys.AccessData(0x9000, false, 0)
	require.False(t, res.L1Hit)
	require.False(t, res.L2Hit)
	require.False(t, res.L3Hit)
	require.True(t, res.MemoryAccess)
	require.True(t, sys.L1D().IsPresent(0x9000))
	require.True(t, sys.L2().IsPresent(0x9000))
	require.True(t, sys.L3().IsPresent(0x9000))
}

func TestL3AbsentTreatsL3MissAsImmediateMemoryAccess(t *testing.T) {
	cfg := educationalConfig(t)
	cfg.L3 = nil
	sys, err := New(cfg, nil)
	require.NoError(t, err)
	res := sys.AccessData(0x9000, false, 0)
	require.True(t, res.MemoryAccess)
	require.False(t, res.L3Hit)
	require.Nil(t, sys.L3())
}

func TestNextLinePrefetchInstallsIntoL2Only(t *testing.T) {
	cfg := educationalConfig(t)
	cfg.Prefetch = cacheconfig.PrefetchConfig{Kind: prefetch.NextLine, Degree: 2}
	sys, err := New(cfg, nil)
	require.NoError(t, err)
	res := sys.AccessData(0x1000, false, 0)
	require.Equal(t, 2, res.PrefetchesIssued)
	require.True(t, sys.L2().IsPresent(0x1040))
	require.True(t, sys.L2().IsPresent(0x1080))
	require.False(t, sys.L1D().IsPresent(0x1040))
}

func TestPrefetchMarkedUsefulOnSubsequentDemandAccess(t *testing.T) {
	cfg := educationalConfig(t)
	cfg.Prefetch = cacheconfig.PrefetchConfig{Kind: prefetch.NextLine, Degree: 1}
	sys, err := New(cfg, nil)
	require.NoError(t, err)
	sys.AccessData(0x1000, false, 0)
	require.EqualValues(t, 0, sys.Prefetcher().Stats().Useful)
	sys.AccessData(0x1040, false, 0) // touches the prefetched line
	require.EqualValues(t, 1, sys.Prefetcher().Stats().Useful)
}
