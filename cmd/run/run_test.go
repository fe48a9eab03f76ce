package run

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func resetFlags() {
	flagConfigFile = ""
	flagPreset = "educational"
	flagL1SizeKB = 0
	flagL1Assoc = 8
	flagL1LineSize = 64
	flagL2SizeKB = 0
	flagL2Assoc = 8
	flagL3SizeKB = 0
	flagL3Assoc = 16
	flagPfDegree = 2
}

func TestBuildHierarchyDefaultsToNamedPreset(t *testing.T) {
	resetFlags()
	cfg, err := buildHierarchy()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}

func TestBuildHierarchyCustomGeometryRequiresL2(t *testing.T) {
	resetFlags()
	flagL1SizeKB = 32
	_, err := buildHierarchy()
	require.Error(t, err)
}

func TestBuildHierarchyCustomGeometryValid(t *testing.T) {
	resetFlags()
	flagL1SizeKB = 32
	flagL2SizeKB = 256
	cfg, err := buildHierarchy()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.HasL3())
}

func TestBuildHierarchyCustomGeometryWithL3(t *testing.T) {
	resetFlags()
	flagL1SizeKB = 32
	flagL2SizeKB = 256
	flagL3SizeKB = 8192
	cfg, err := buildHierarchy()
	require.NoError(t, err)
	require.True(t, cfg.HasL3())
}
