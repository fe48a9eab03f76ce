package processor

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/prefetch"
	"cachesim/internal/replacement"
	"cachesim/internal/system"
	"cachesim/internal/trace"

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

func TestSplitLinesSingleLine(t *testing.T) {
	lines := splitLines(0x1000, 10, 64)
	require.Equal(t, []uint64{0x1000}, lines)
}

func TestSplitLinesCrossLine(t *testing.T) {
	lines := splitLines(0x103C, 8, 64) // [0x103C, 0x1044) crosses into next line
	require.Equal(t, []uint64{0x1000, 0x1040}, lines)
}

func TestProcessPlainReadRecordsSourceLine(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x1000, Size: 4, File: "a.c", Line: 10})
	p.Process(trace.Event{Address: 0x1000, Size: 4, File: "a.c", Line: 10})
	hot := p.HotLines(10)
	require.Len(t, hot, 1)
	require.EqualValues(t, 1, hot[0].Misses)
	require.EqualValues(t, 1, hot[0].Hits)
}

func TestProcessSoftwarePrefetchDoesNotCountAsSourceLineStat(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x1000, Size: 4, IsPrefetch: true, File: "a.c", Line: 10})
	require.EqualValues(t, 1, p.Counters().SWPrefetchIssued)
	require.Empty(t, p.HotLines(10))
}

func TestProcessMemcpySplitsSourceThenDest(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x2000, SrcAddress: 0x1000, Size: 64, IsMemcpy: true})
	require.EqualValues(t, 1, p.Counters().MemcpyCount)
	require.True(t, sys.L1D().IsPresent(0x1000))
	require.True(t, sys.L1D().IsPresent(0x2000))
	require.True(t, sys.L1D().IsDirty(0x2000))
	require.False(t, sys.L1D().IsDirty(0x1000))
}

func TestProcessVectorCountsCrossLine(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x103C, Size: 8, IsVector: true})
	require.EqualValues(t, 1, p.Counters().VectorAccesses)
	require.EqualValues(t, 1, p.Counters().CrossLineAccesses)
}

func TestProcessAtomicRMWCountsAsWrite(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x1000, Size: 8, IsAtomic: true, IsRMW: true, IsWrite: true})
	require.EqualValues(t, 1, p.Counters().AtomicRMW)
	require.True(t, sys.L1D().IsDirty(0x1000))
}

func TestStreamingCallbackInvokedOncePerEvent(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	var calls int
	p := New(sys, func(EventResult) { calls++ })
	p.Process(trace.Event{Address: 0x1000, Size: 128}) // crosses two lines
	require.Equal(t, 1, calls)
}

func TestHotLinesSortedByMissesDescendingStableTies(t *testing.T) {
	sys, err := system.New(educationalConfig(t), nil)
	require.NoError(t, err)
	p := New(sys, nil)
	p.Process(trace.Event{Address: 0x1000, Size: 4, File: "a.c", Line: 1})
	p.Process(trace.Event{Address: 0x2000, Size: 4, File: "b.c", Line: 2})
	p.Process(trace.Event{Address: 0x3000, Size: 4, File: "c.c", Line: 3})
	hot := p.HotLines(10)
	require.Len(t, hot, 3)
	require.Equal(t, "a.c", hot[0].File) // first-seen tie-break
}
