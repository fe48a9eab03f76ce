package stats

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "fmt"

// Violation describes one failed invariant check against a completed
// RunResult (spec.md §8, invariants 1-2 and 6-8). It is a lightweight,
// in-repo analogue of the external cachegrind cross-checker the spec scopes
// out of the engine itself.
type Violation struct {
	Invariant string
	Detail    string
}

func (v Violation) String() string { return fmt.Sprintf("[%s] %s", v.Invariant, v.Detail) }

// Validate cross-checks the statistical invariants a correct run must
// satisfy. It cannot re-derive invariants 6-8 (those are properties of
// CacheLevel's Install/IsPresent/IsDirty and address round-tripping,
// exercised directly by internal/cachelevel and internal/addr's tests) but
// it does check everything observable from the aggregated result: hit-rate
// bounds (invariant 2), hits+misses self-consistency (invariant 1), and
// coherence/false-sharing monotonicity (invariant from spec.md §4.7/§6.3).
func Validate(r RunResult) []Violation {
	var violations []Violation
	checkLevel := func(name string, s CacheStats) {
		if s.HitRate < 0 || s.HitRate > 1 {
			violations = append(violations, Violation{"hit_rate_bounds", fmt.Sprintf("%s hit_rate=%.6f out of [0,1]", name, s.HitRate)})
		}
		total := s.Hits + s.Misses
		if total > 0 {
			expected := float64(s.Hits) / float64(total)
			if diff := expected - s.HitRate; diff > 1e-9 || diff < -1e-9 {
				violations = append(violations, Violation{"hits_misses_consistency", fmt.Sprintf("%s hit_rate=%.6f does not match hits/(hits+misses)=%.6f", name, s.HitRate, expected)})
			}
		}
	}
	checkLevel("L1D", r.L1D)
	checkLevel("L1I", r.L1I)
	checkLevel("L2", r.L2)
	if r.HasL3 {
		checkLevel("L3", r.L3)
	}
	if r.MultiCore != nil {
		for i, c := range r.MultiCore.L1PerCore {
			checkLevel(fmt.Sprintf("core%d.L1", i), c)
		}
		if r.MultiCore.FalseSharingEvents != len(r.FalseSharing) {
			violations = append(violations, Violation{"false_sharing_distinct_lines", fmt.Sprintf("FalseSharingEvents=%d but %d distinct lines reported", r.MultiCore.FalseSharingEvents, len(r.FalseSharing))})
		}
	}
	if r.Prefetch.Accuracy < 0 || r.Prefetch.Accuracy > 1 {
		violations = append(violations, Violation{"prefetch_accuracy_bounds", fmt.Sprintf("accuracy=%.6f out of [0,1]", r.Prefetch.Accuracy)})
	}
	return violations
}
