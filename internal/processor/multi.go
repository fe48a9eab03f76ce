package processor

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"cachesim/internal/multicore"
	"cachesim/internal/trace"
)

// MultiCoreTraceProcessor drives a multicore.MultiCoreCacheSystem from a
// stream of trace.Event, routing each by its thread_id (spec.md §4.8/§4.9).
type MultiCoreTraceProcessor struct {
	sys      *multicore.MultiCoreCacheSystem
	lineSize uint64
	lines    *sourceLineTracker
	counters IntrinsicCounters

	onEvent func(EventResult)
}

// New constructs a MultiCoreTraceProcessor over sys.
func NewMultiCore(sys *multicore.MultiCoreCacheSystem, lineSize uint64, onEvent func(EventResult)) *MultiCoreTraceProcessor {
	return &MultiCoreTraceProcessor{sys: sys, lineSize: lineSize, lines: newSourceLineTracker(), onEvent: onEvent}
}

func (p *MultiCoreTraceProcessor) Counters() IntrinsicCounters  { return p.counters }
func (p *MultiCoreTraceProcessor) HotLines(limit int) []HotLine { return p.lines.hotLines(limit) }

// Process dispatches one parsed trace event for its thread's bound core.
func (p *MultiCoreTraceProcessor) Process(ev trace.Event) {
	switch {
	case ev.IsPrefetch:
		p.processSoftwarePrefetch(ev)
	case ev.IsMemcpy, ev.IsMemmove:
		p.processCopyLike(ev)
	case ev.IsMemset:
		p.processMemset(ev)
	case ev.IsVector:
		p.processVector(ev)
	case ev.IsAtomic:
		p.processAtomic(ev)
	case ev.IsICache:
		// Multi-core mode does not track ITLB or L1i separately (spec.md
		// §4.9); route as an ordinary read so it still exercises coherence.
		p.processPlain(ev, false)
	default:
		p.processPlain(ev, ev.IsWrite)
	}
}

func (p *MultiCoreTraceProcessor) recordAndEmit(ev trace.Event, lines []uint64, isWrite bool) {
	var first EventResult
	for i, l := range lines {
		res := p.sys.AccessData(ev.ThreadID, l, isWrite, ev.Address, ev.File, ev.Line)
		p.lines.record(ev.File, ev.Line, ev.ThreadID, res.L1Hit)
		if i == 0 {
			first = EventResult{L1Hit: res.L1Hit, L2Hit: res.L2Hit, L3Hit: res.L3Hit, Address: ev.Address, Size: ev.Size, File: ev.File, Line: ev.Line}
		}
	}
	if p.onEvent != nil && len(lines) > 0 {
		p.onEvent(first)
	}
}

func (p *MultiCoreTraceProcessor) processPlain(ev trace.Event, isWrite bool) {
	lines := splitLines(ev.Address, ev.Size, p.lineSize)
	p.recordAndEmit(ev, lines, isWrite)
}

func (p *MultiCoreTraceProcessor) processVector(ev trace.Event) {
	p.counters.VectorAccesses++
	lines := splitLines(ev.Address, ev.Size, p.lineSize)
	if len(lines) > 1 {
		p.counters.CrossLineAccesses++
	}
	p.recordAndEmit(ev, lines, ev.IsWrite)
}

func (p *MultiCoreTraceProcessor) processAtomic(ev trace.Event) {
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
	lines := splitLines(ev.Address, ev.Size, p.lineSize)
	p.recordAndEmit(ev, lines, ev.IsWrite)
}

func (p *MultiCoreTraceProcessor) processMemset(ev trace.Event) {
	p.counters.MemsetCount++
	lines := splitLines(ev.Address, ev.Size, p.lineSize)
	p.recordAndEmit(ev, lines, true)
}

func (p *MultiCoreTraceProcessor) processCopyLike(ev trace.Event) {
	if ev.IsMemcpy {
		p.counters.MemcpyCount++
	} else {
		p.counters.MemmoveCount++
	}
	srcLines := splitLines(ev.SrcAddress, ev.Size, p.lineSize)
	for _, l := range srcLines {
		res := p.sys.AccessData(ev.ThreadID, l, false, ev.Address, ev.File, ev.Line)
		p.lines.record(ev.File, ev.Line, ev.ThreadID, res.L1Hit)
	}
	dstLines := splitLines(ev.Address, ev.Size, p.lineSize)
	p.recordAndEmit(ev, dstLines, true)
}

func (p *MultiCoreTraceProcessor) processSoftwarePrefetch(ev trace.Event) {
	p.counters.SWPrefetchIssued++
	lines := splitLines(ev.Address, ev.Size, p.lineSize)
	if len(lines) == 0 {
		return
	}
	res := p.sys.AccessData(ev.ThreadID, lines[0], false, ev.Address, "", 0)
	if p.onEvent != nil {
		p.onEvent(EventResult{L1Hit: res.L1Hit, L2Hit: res.L2Hit, L3Hit: res.L3Hit, Address: ev.Address, Size: ev.Size})
	}
}
