package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSkipsBlankAndComment(t *testing.T) {
	_, ok, err := Parse("")
	require.False(t, ok)
	require.NoError(t, err)

	_, ok, err = Parse("   ")
	require.False(t, ok)
	require.NoError(t, err)

	_, ok, err = Parse("# a comment line R 0x1000 4")
	require.False(t, ok)
	require.NoError(t, err)
}

func TestParseTypeLetters(t *testing.T) {
	cases := []struct {
		line    string
		check   func(t *testing.T, ev Event)
	}{
		{"L 0x1000 8", func(t *testing.T, ev Event) { require.False(t, ev.IsWrite) }},
		{"R 0x1000 8", func(t *testing.T, ev Event) { require.False(t, ev.IsWrite) }},
		{"l 0x1000 8", func(t *testing.T, ev Event) { require.False(t, ev.IsWrite) }},
		{"S 0x1000 8", func(t *testing.T, ev Event) { require.True(t, ev.IsWrite) }},
		{"I 0x1000 4", func(t *testing.T, ev Event) { require.True(t, ev.IsICache) }},
		{"V 0x1000 32", func(t *testing.T, ev Event) { require.True(t, ev.IsVector); require.False(t, ev.IsWrite) }},
		{"U 0x1000 32", func(t *testing.T, ev Event) { require.True(t, ev.IsVector); require.True(t, ev.IsWrite) }},
		{"A 0x1000 8", func(t *testing.T, ev Event) { require.True(t, ev.IsAtomic); require.False(t, ev.IsWrite) }},
		{"X 0x1000 8", func(t *testing.T, ev Event) {
			require.True(t, ev.IsAtomic)
			require.True(t, ev.IsRMW)
			require.True(t, ev.IsWrite)
		}},
		{"C 0x1000 8", func(t *testing.T, ev Event) {
			require.True(t, ev.IsAtomic)
			require.True(t, ev.IsCmpxchg)
			require.True(t, ev.IsWrite)
		}},
		{"Z 0x1000 64", func(t *testing.T, ev Event) { require.True(t, ev.IsMemset); require.True(t, ev.IsWrite) }},
	}
	for _, c := range cases {
		ev, ok, err := Parse(c.line)
		require.NoError(t, err, c.line)
		require.True(t, ok, c.line)
		c.check(t, ev)
	}
}

func TestParsePrefetchHint(t *testing.T) {
	ev, ok, err := Parse("P2 0x1000 4")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.IsPrefetch)
	require.EqualValues(t, 2, ev.PrefetchHint)

	ev, ok, err = Parse("P 0x1000 4")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.IsPrefetch)
	require.EqualValues(t, 0, ev.PrefetchHint)

	_, ok, err = Parse("P9 0x1000 4")
	require.False(t, ok)
	require.Error(t, err)
}

func TestParseMemcpyRequiresSrcAddress(t *testing.T) {
	ev, ok, err := Parse("M 0x2000 0x1000 64")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.IsMemcpy)
	require.True(t, ev.HasSrc)
	require.EqualValues(t, 0x1000, ev.SrcAddress)
	require.EqualValues(t, 0x2000, ev.Address)
	require.EqualValues(t, 64, ev.Size)

	_, ok, err = Parse("M 0x2000 64") // missing src address before size
	require.False(t, ok)
	require.Error(t, err)
}

func TestParseMemmove(t *testing.T) {
	ev, ok, err := Parse("O 0x2000 0x1000 64")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, ev.IsMemmove)
	require.True(t, ev.HasSrc)
}

func TestParseAddressBareAndPrefixedHex(t *testing.T) {
	ev, ok, err := Parse("R 0x1000 4")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x1000, ev.Address)

	ev, ok, err = Parse("R 1000 4") // bare token is still hex, not decimal
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x1000, ev.Address)
}

func TestParseSizeZeroRejected(t *testing.T) {
	_, ok, err := Parse("R 0x1000 0")
	require.False(t, ok)
	require.Error(t, err)
}

func TestParseFileLineField(t *testing.T) {
	ev, ok, err := Parse("R 0x1000 4 main.c:42")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "main.c", ev.File)
	require.EqualValues(t, 42, ev.Line)
	require.EqualValues(t, 1, ev.ThreadID) // default
	require.True(t, ev.HasSourceLine())
}

func TestParseThreadField(t *testing.T) {
	ev, ok, err := Parse("R 0x1000 4 T7")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, ev.ThreadID)
	require.False(t, ev.HasSourceLine())
}

func TestParseFileAndThreadTogether(t *testing.T) {
	ev, ok, err := Parse("R 0x1000 4 main.c:42 T3")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "main.c", ev.File)
	require.EqualValues(t, 42, ev.Line)
	require.EqualValues(t, 3, ev.ThreadID)
}

// A trailing token beginning with 'T' followed by digits is always the
// thread field, even though it looks like it could be a file name starting
// with the letter T (spec.md §6.1 names this quirk explicitly).
func TestParseFileBeginningWithTIsReinterpretedAsThread(t *testing.T) {
	ev, ok, err := Parse("R 0x1000 4 T9")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 9, ev.ThreadID)
	require.Equal(t, "", ev.File)
}

func TestParseUnknownTypeRejected(t *testing.T) {
	_, ok, err := Parse("Q 0x1000 4")
	require.False(t, ok)
	require.Error(t, err)
}

func TestParseTooFewFieldsRejected(t *testing.T) {
	_, ok, err := Parse("R 0x1000")
	require.False(t, ok)
	require.Error(t, err)
}

func TestParseBadAddressRejected(t *testing.T) {
	_, ok, err := Parse("R zz 4")
	require.False(t, ok)
	require.Error(t, err)
}
