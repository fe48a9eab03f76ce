package addr

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDecoderRejectsBadGeometry(t *testing.T) {
	_, err := NewDecoder(0, 8)
	require.Error(t, err)

	_, err = NewDecoder(64, 0)
	require.Error(t, err)

	_, err = NewDecoder(48, 8) // not a power of two
	require.Error(t, err)

	_, err = NewDecoder(64, 12) // not a power of two
	require.Error(t, err)
}

func TestDecoderSplitRebuildRoundTrip(t *testing.T) {
	d, err := NewDecoder(64, 8) // offset=6 bits, index=3 bits
	require.NoError(t, err)
	require.Equal(t, uint(6), d.OffsetBits())
	require.Equal(t, uint(3), d.IndexBits())
	require.Equal(t, uint(55), d.TagBits())

	addresses := []uint64{0x1000, 0x1001, 0x103F, 0x1040, 0xDEADBEEF00, 0}
	for _, address := range addresses {
		tag, index, offset := d.Split(address)
		rebuilt := d.Rebuild(tag, index)
		require.Equal(t, address-offset, rebuilt, "round trip for %#x", address)
		// invariant 1 (spec.md §3): re-deriving tag/index from the rebuilt
		// address must reproduce the same tag and index.
		tag2, index2, _ := d.Split(rebuilt)
		require.Equal(t, tag, tag2)
		require.Equal(t, index, index2)
	}
}

func TestDecoderLineAddress(t *testing.T) {
	d, err := NewDecoder(64, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1000), d.LineAddress(0x1009))
	require.Equal(t, uint64(0x1040), d.LineAddress(0x1040))
	require.Equal(t, uint64(0x1040), d.LineAddress(0x107F))
}

func TestLog2(t *testing.T) {
	cases := map[uint64]uint{1: 0, 2: 1, 4: 2, 64: 6, 4096: 12}
	for n, want := range cases {
		require.Equal(t, want, Log2(n))
	}
}
