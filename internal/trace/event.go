// Package trace defines the TraceEvent wire model (spec.md §3, §6.1) and its
// allocation-light line parser (spec.md §4.10).
package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Event is one parsed line of the input trace. Exactly one "kind" (plain
// R/W, icache fetch, prefetch, vector R/W, atomic variant, or intrinsic) is
// expected to be set by the parser, per spec.md §3.
type Event struct {
	Address      uint64
	HasSrc       bool
	SrcAddress   uint64
	Size         uint32
	ThreadID     uint32
	File         string
	Line         uint32

	IsWrite      bool
	IsICache     bool
	IsPrefetch   bool
	PrefetchHint uint8 // 0..3
	IsVector     bool
	IsAtomic     bool
	IsRMW        bool
	IsCmpxchg    bool
	IsMemset     bool
	IsMemcpy     bool
	IsMemmove    bool
}

// HasSourceLine reports whether File/Line were present on the trace line.
func (e Event) HasSourceLine() bool { return e.File != "" }
