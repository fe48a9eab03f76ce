package presets

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/prefetch"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
line_size: 64
l1d: {size_kb: 32, assoc: 8}
l1i: {size_kb: 32, assoc: 8}
l2:  {size_kb: 256, assoc: 8}
l3:  {size_kb: 8192, assoc: 16}
inclusion: exclusive
replacement: srrip
prefetch: stream
prefetch_degree: 4
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hierarchy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAMLParsesFullHierarchy(t *testing.T) {
	path := writeTempYAML(t, sampleYAML)
	cfg, err := LoadYAML(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.EqualValues(t, 32, cfg.L1D.SizeKB)
	require.True(t, cfg.HasL3())
	require.Equal(t, cacheconfig.Exclusive, cfg.Inclusion)
	require.Equal(t, prefetch.Stream, cfg.Prefetch.Kind)
	require.Equal(t, 4, cfg.Prefetch.Degree)
}

func TestLoadYAMLDefaultsLineSizeAndDegree(t *testing.T) {
	path := writeTempYAML(t, `
l1d: {size_kb: 32, assoc: 8}
l1i: {size_kb: 32, assoc: 8}
l2:  {size_kb: 256, assoc: 8}
`)
	cfg, err := LoadYAML(path)
	require.NoError(t, err)
	require.EqualValues(t, 64, cfg.L1D.LineSize)
	require.Equal(t, 2, cfg.Prefetch.Degree)
	require.False(t, cfg.HasL3())
}

func TestLoadYAMLUnknownInclusionRejected(t *testing.T) {
	path := writeTempYAML(t, `
l1d: {size_kb: 32, assoc: 8}
l1i: {size_kb: 32, assoc: 8}
l2:  {size_kb: 256, assoc: 8}
inclusion: bogus
`)
	_, err := LoadYAML(path)
	require.Error(t, err)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
