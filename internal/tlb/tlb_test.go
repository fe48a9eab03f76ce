package tlb

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLBMissThenHit(t *testing.T) {
	tl := New(4, 2)
	require.False(t, tl.Access(0x1000))
	require.True(t, tl.Access(0x1000))
	require.True(t, tl.Access(0x1000 + 100)) // same page
	require.EqualValues(t, 2, tl.Stats().Hits)
	require.EqualValues(t, 1, tl.Stats().Misses)
}

func TestTLBDistinctPagesMiss(t *testing.T) {
	tl := New(4, 2)
	require.False(t, tl.Access(0x1000))
	require.False(t, tl.Access(0x2000))
	require.InDelta(t, 0.0, tl.Stats().HitRate(), 1e-9)
}

func TestTLBEvictsLRU(t *testing.T) {
	tl := New(1, 2) // single set forces eviction
	tl.Access(0x0000)
	tl.Access(0x1000)
	tl.Access(0x0000) // hit, refreshes LRU
	tl.Access(0x2000) // miss, evicts 0x1000 (least recently used)
	require.True(t, tl.Access(0x0000))
	require.False(t, tl.Access(0x1000))
}
