package stats

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cachesim/internal/cacheconfig"

	"github.com/stretchr/testify/require"
)

func TestComputeTimingWeightsEachLevel(t *testing.T) {
	lat := cacheconfig.DefaultLatency()
	ts, err := ComputeTiming(TimingInputs{
		L1Hits: 100, L2Hits: 10, L3Hits: 5, MemoryAccesses: 2, TLBMisses: 1, TotalAccesses: 118,
	}, lat)
	require.NoError(t, err)
	expected := 100*lat.L1Cycles + 10*lat.L2Cycles + 5*lat.L3Cycles + 2*lat.MemoryCycles + 1*lat.TLBMissCycles
	require.Equal(t, expected, ts.TotalCycles)
	require.InDelta(t, float64(expected)/118.0, ts.AvgLatency, 1e-9)
}

func TestComputeTimingZeroAccessesNoAvgLatency(t *testing.T) {
	ts, err := ComputeTiming(TimingInputs{}, cacheconfig.DefaultLatency())
	require.NoError(t, err)
	require.Equal(t, uint64(0), ts.TotalCycles)
	require.Equal(t, 0.0, ts.AvgLatency)
}

func TestValidateCleanResultHasNoViolations(t *testing.T) {
	r := RunResult{
		L1D: CacheStats{Hits: 90, Misses: 10, HitRate: 0.9},
		L1I: CacheStats{Hits: 5, Misses: 0, HitRate: 1.0},
		L2:  CacheStats{Hits: 8, Misses: 2, HitRate: 0.8},
	}
	require.Empty(t, Validate(r))
}

func TestValidateCatchesHitRateOutOfBounds(t *testing.T) {
	r := RunResult{L1D: CacheStats{Hits: 1, Misses: 1, HitRate: 1.5}}
	violations := Validate(r)
	require.NotEmpty(t, violations)
}

func TestValidateCatchesInconsistentHitRate(t *testing.T) {
	r := RunResult{L1D: CacheStats{Hits: 1, Misses: 1, HitRate: 0.9}}
	violations := Validate(r)
	require.NotEmpty(t, violations)
}

func TestValidateCatchesFalseSharingCountMismatch(t *testing.T) {
	r := RunResult{
		MultiCore: &MultiCoreStats{FalseSharingEvents: 2},
	}
	violations := Validate(r)
	require.NotEmpty(t, violations)
}
