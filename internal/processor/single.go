package processor

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cachesim/internal/system"
	"cachesim/internal/trace"
)

// EventResult is the per-event streaming callback payload of spec.md §6.4.
type EventResult struct {
	L1Hit   bool
	L2Hit   bool
	L3Hit   bool
	Address uint64
	Size    uint32
	File    string
	Line    uint32
}

// TraceProcessor drives a single-core system.CacheSystem from a stream of
// trace.Event (spec.md §4.9, C10). It is not safe for concurrent use.
type TraceProcessor struct {
	sys      *system.CacheSystem
	lines    *sourceLineTracker
	counters IntrinsicCounters

	onEvent func(EventResult)
}

// New constructs a TraceProcessor over sys. onEvent may be nil; when set it
// is invoked once per top-level trace.Event with the result of its first
// sub-access (spec.md §6.4's streaming contract: "no semantic contract
// beyond ordering").
func New(sys *system.CacheSystem, onEvent func(EventResult)) *TraceProcessor {
	return &TraceProcessor{sys: sys, lines: newSourceLineTracker(), onEvent: onEvent}
}

func (p *TraceProcessor) Counters() IntrinsicCounters { return p.counters }
func (p *TraceProcessor) HotLines(limit int) []HotLine { return p.lines.hotLines(limit) }

// Process dispatches one parsed trace event (spec.md §4.9).
func (p *TraceProcessor) Process(ev trace.Event) {
	lineSize := p.sys.L1D().Config().LineSize
	switch {
	case ev.IsPrefetch:
		p.processSoftwarePrefetch(ev, lineSize)
	case ev.IsMemcpy, ev.IsMemmove:
		p.processCopyLike(ev, lineSize)
	case ev.IsMemset:
		p.processMemset(ev, lineSize)
	case ev.IsVector:
		p.processVector(ev, lineSize)
	case ev.IsAtomic:
		p.processAtomic(ev, lineSize)
	case ev.IsICache:
		p.processICache(ev, lineSize)
	default:
		p.processPlain(ev, lineSize)
	}
}

func (p *TraceProcessor) recordAndEmit(ev trace.Event, lines []uint64, isWrite bool) {
	var first EventResult
	for i, l := range lines {
		res := p.sys.AccessData(l, isWrite, ev.Address)
		p.lines.record(ev.File, ev.Line, ev.ThreadID, res.L1Hit)
		if i == 0 {
			first = EventResult{L1Hit: res.L1Hit, L2Hit: res.L2Hit, L3Hit: res.L3Hit, Address: ev.Address, Size: ev.Size, File: ev.File, Line: ev.Line}
		}
	}
	if p.onEvent != nil && len(lines) > 0 {
		p.onEvent(first)
	}
}

func (p *TraceProcessor) processPlain(ev trace.Event, lineSize uint64) {
	lines := splitLines(ev.Address, ev.Size, lineSize)
	p.recordAndEmit(ev, lines, ev.IsWrite)
}

func (p *TraceProcessor) processVector(ev trace.Event, lineSize uint64) {
	p.counters.VectorAccesses++
	lines := splitLines(ev.Address, ev.Size, lineSize)
	if len(lines) > 1 {
		p.counters.CrossLineAccesses++
	}
	p.recordAndEmit(ev, lines, ev.IsWrite)
}

func (p *TraceProcessor) processAtomic(ev trace.Event, lineSize uint64) {
	switch {
	case ev.IsCmpxchg:
		p.counters.AtomicCmpxchg++
	case ev.IsRMW:
		p.counters.AtomicRMW++
	case ev.IsWrite:
		p.counters.AtomicStores++
	default:
		p.counters.AtomicLoads++
	}
	lines := splitLines(ev.Address, ev.Size, lineSize)
	p.recordAndEmit(ev, lines, ev.IsWrite)
}

func (p *TraceProcessor) processMemset(ev trace.Event, lineSize uint64) {
	p.counters.MemsetCount++
	lines := splitLines(ev.Address, ev.Size, lineSize)
	p.recordAndEmit(ev, lines, true)
}

// processCopyLike handles memcpy/memmove: source region reads, destination
// region writes, source-then-destination ordering (spec.md §5, §4.9).
func (p *TraceProcessor) processCopyLike(ev trace.Event, lineSize uint64) {
	if ev.IsMemcpy {
		p.counters.MemcpyCount++
	} else {
		p.counters.MemmoveCount++
	}
	srcLines := splitLines(ev.SrcAddress, ev.Size, lineSize)
	for _, l := range srcLines {
		res := p.sys.AccessData(l, false, ev.Address)
		p.lines.record(ev.File, ev.Line, ev.ThreadID, res.L1Hit)
	}
	dstLines := splitLines(ev.Address, ev.Size, lineSize)
	p.recordAndEmit(ev, dstLines, true)
}

// processSoftwarePrefetch reads the first touched line on behalf of the
// issuing core; it does not count as a demand hit/miss in source-line
// stats (spec.md §4.9).
func (p *TraceProcessor) processSoftwarePrefetch(ev trace.Event, lineSize uint64) {
	p.counters.SWPrefetchIssued++
	lines := splitLines(ev.Address, ev.Size, lineSize)
	if len(lines) == 0 {
		return
	}
	res := p.sys.AccessData(lines[0], false, ev.Address)
	if p.onEvent != nil {
		p.onEvent(EventResult{L1Hit: res.L1Hit, L2Hit: res.L2Hit, L3Hit: res.L3Hit, Address: ev.Address, Size: ev.Size})
	}
}

func (p *TraceProcessor) processICache(ev trace.Event, lineSize uint64) {
	p.counters.ICacheFetches++
	lines := splitLines(ev.Address, ev.Size, lineSize)
	var first EventResult
	for i, l := range lines {
		res := p.sys.AccessInstruction(l)
		p.lines.record(ev.File, ev.Line, ev.ThreadID, res.L1Hit)
		if i == 0 {
			first = EventResult{L1Hit: res.L1Hit, L2Hit: res.L2Hit, L3Hit: res.L3Hit, Address: ev.Address, Size: ev.Size, File: ev.File, Line: ev.Line}
		}
	}
	if p.onEvent != nil && len(lines) > 0 {
		p.onEvent(first)
	}
}
