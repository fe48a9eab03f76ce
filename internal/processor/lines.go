// Package processor implements TraceProcessor / MultiCoreTraceProcessor
// (spec.md §4.9): splitting multi-byte accesses into per-line sub-accesses,
// dispatching by event flavor, and accumulating per-source-line statistics.
package processor

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// splitLines expands an access to [address, address+size) into the
// line-aligned addresses of every cache line it intersects, in ascending
// order (spec.md §4.9: "one sub-access per intersected cache line").
func splitLines(address uint64, size uint32, lineSize uint64) []uint64 {
	if size == 0 {
		size = 1
	}
	first := address &^ (lineSize - 1)
	last := (address + uint64(size) - 1) &^ (lineSize - 1)
	lines := make([]uint64, 0, (last-first)/lineSize+1)
	for l := first; ; l += lineSize {
		lines = append(lines, l)
		if l == last {
			break
		}
	}
	return lines
}
