package presets

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cachesim/internal/cacheconfig"

	"github.com/stretchr/testify/require"
)

func TestAllRegisteredPresetsBuild(t *testing.T) {
	for _, name := range Names() {
		cfg, err := Build(name)
		require.NoError(t, err, name)
		require.NoError(t, cfg.Validate(), name)
	}
}

func TestUnknownPresetIsDimensionError(t *testing.T) {
	_, err := Build("does-not-exist")
	require.Error(t, err)
	var dimErr *cacheconfig.DimensionError
	require.ErrorAs(t, err, &dimErr)
}

func TestEducationalMatchesScenarioGeometry(t *testing.T) {
	cfg, err := Educational()
	require.NoError(t, err)
	require.EqualValues(t, 8, cfg.L1D.NumSets)
	require.Equal(t, 2, cfg.L1D.Assoc)
	require.True(t, cfg.HasL3())
	require.EqualValues(t, 32, cfg.L3.NumSets)
}

func TestPresetNameLookupIsCaseInsensitive(t *testing.T) {
	_, err := Build("EDUCATIONAL")
	require.NoError(t, err)
}
