package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"io"

	"cachesim/internal/stats"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// textPrinter groups thousands separators into hit/miss counts and renders
// hit rates as percentages, the way a human-facing report should.
var textPrinter = message.NewPrinter(language.English)

func writeText(r stats.RunResult, w io.Writer) error {
	p := textPrinter
	printCacheStats(w, "L1D", r.L1D)
	printCacheStats(w, "L1I", r.L1I)
	printCacheStats(w, "L2", r.L2)
	if r.HasL3 {
		printCacheStats(w, "L3", r.L3)
	}
	if r.MultiCore != nil {
		p.Fprintln(w, "\nPer-core L1:")
		for i, c := range r.MultiCore.L1PerCore {
			printCacheStats(w, p.Sprintf("  core %d L1", i), c)
		}
		p.Fprintf(w, "\nCoherence invalidations: %d\n", r.MultiCore.CoherenceInvalidations)
		p.Fprintf(w, "False-sharing lines flagged: %d\n", r.MultiCore.FalseSharingEvents)
	}
	p.Fprintf(w, "\nDTLB: hits=%d misses=%d hit_rate=%.2f%%\n", r.TLB.DTLB.Hits, r.TLB.DTLB.Misses, r.TLB.DTLB.HitRate*100)
	p.Fprintf(w, "Prefetch: issued=%d useful=%d useless=%d accuracy=%.2f%%\n", r.Prefetch.Issued, r.Prefetch.Useful, r.Prefetch.Useless, r.Prefetch.Accuracy*100)
	p.Fprintf(w, "\nTiming: total_cycles=%d avg_latency=%.3f\n", r.Timing.TotalCycles, r.Timing.AvgLatency)

	if len(r.HotLines) > 0 {
		p.Fprintln(w, "\nHot source lines (by misses):")
		for _, hl := range r.HotLines {
			p.Fprintf(w, "  %s:%d  hits=%d misses=%d threads=%d\n", hl.File, hl.Line, hl.Hits, hl.Misses, hl.NumThreads)
		}
	}
	if len(r.FalseSharing) > 0 {
		p.Fprintln(w, "\nFalse sharing:")
		for _, fs := range r.FalseSharing {
			p.Fprintf(w, "  line 0x%x: %d events\n", fs.LineAddress, len(fs.Events))
		}
	}
	return nil
}

func printCacheStats(w io.Writer, name string, s stats.CacheStats) {
	textPrinter.Fprintf(w, "%s: hits=%d misses=%d hit_rate=%.2f%% writebacks=%d\n", name, s.Hits, s.Misses, s.HitRate*100, s.Writebacks)
}
