// Package cacheconfig defines CacheConfig and CacheHierarchyConfig (spec.md
// §3), the validated, derived cache geometry consumed by internal/cachelevel
// and internal/system.
package cacheconfig

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"

	"cachesim/internal/addr"
	"cachesim/internal/prefetch"
	"cachesim/internal/replacement"

	"github.com/pkg/errors"
)

// ConfigError wraps an invalid cache geometry (spec.md §7): zero size,
// non-power-of-two line size or set count, or zero associativity. It is
// fatal at construction and propagated to the caller.
type ConfigError struct {
	cause error
}

func (e *ConfigError) Error() string { return "invalid cache config: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{cause: errors.Errorf(format, args...)}
}

// WritePolicy selects whether a level allocates dirty lines on write
// (write-back) or never holds dirty data (read-only, e.g. an L1i).
type WritePolicy uint8

const (
	WriteBack WritePolicy = iota
	ReadOnly
)

// InclusionPolicy is the inter-level containment discipline (spec.md
// glossary): Inclusive, Exclusive, or NINE (non-inclusive non-exclusive).
type InclusionPolicy uint8

const (
	Inclusive InclusionPolicy = iota
	Exclusive
	NINE
)

func (p InclusionPolicy) String() string {
	switch p {
	case Inclusive:
		return "inclusive"
	case Exclusive:
		return "exclusive"
	case NINE:
		return "nine"
	default:
		return "unknown"
	}
}

// CacheConfig is one level's validated geometry: size, associativity, line
// size, replacement policy and write policy, plus the fields derived from
// them (spec.md §3).
type CacheConfig struct {
	SizeKB      uint64
	Assoc       int
	LineSize    uint64
	Replacement replacement.Policy
	Write       WritePolicy

	NumSets uint64
	Decoder *addr.Decoder
}

// New validates the geometry and constructs a CacheConfig. Validity rules
// rejected here, per spec.md §3: zero size, non-power-of-two line size or
// derived set count, zero associativity, and any geometry where
// assoc*numSets*lineSize does not reconstruct sizeKB*1024 exactly (i.e. size
// is not evenly divisible by line*assoc).
func New(sizeKB uint64, assoc int, lineSize uint64, policy replacement.Policy, write WritePolicy) (*CacheConfig, error) {
	if sizeKB == 0 {
		return nil, newConfigError("size must be nonzero")
	}
	if assoc <= 0 {
		return nil, newConfigError("associativity must be positive, got %d", assoc)
	}
	if lineSize == 0 || !addr.IsPowerOfTwo(lineSize) {
		return nil, newConfigError("line size %d must be a nonzero power of two", lineSize)
	}
	sizeBytes := sizeKB * 1024
	perWay := lineSize * uint64(assoc)
	if perWay == 0 || sizeBytes%perWay != 0 {
		return nil, newConfigError("size %dKB is not evenly divisible by line(%d)*assoc(%d)", sizeKB, lineSize, assoc)
	}
	numSets := sizeBytes / perWay
	if !addr.IsPowerOfTwo(numSets) {
		return nil, newConfigError("derived set count %d (size/(line*assoc)) is not a power of two", numSets)
	}
	decoder, err := addr.NewDecoder(lineSize, numSets)
	if err != nil {
		return nil, newConfigError("%s", err.Error())
	}
	return &CacheConfig{
		SizeKB:      sizeKB,
		Assoc:       assoc,
		LineSize:    lineSize,
		Replacement: policy,
		Write:       write,
		NumSets:     numSets,
		Decoder:     decoder,
	}, nil
}

// Present reports whether this level exists at all (used for L3, which is
// optional: spec.md §3 says kb_size=0 means absent).
func (c *CacheConfig) Present() bool { return c != nil && c.SizeKB > 0 }

// PrefetchConfig configures the hardware prefetcher shared by a hierarchy
// (single-core) or instantiated per-core (multi-core), spec.md §3/§4.5.
type PrefetchConfig struct {
	Kind   prefetch.Kind
	Degree int
}

// LatencyConfig holds per-level cycle latencies and the TLB-miss penalty
// used to compute TimingStats (spec.md §3, §6.3).
type LatencyConfig struct {
	L1Cycles     uint64
	L2Cycles     uint64
	L3Cycles     uint64
	MemoryCycles uint64
	TLBMissCycles uint64
}

// DefaultLatency is a reasonable, documented-nowhere-in-particular set of
// cycle counts used when a preset does not specify its own; it follows the
// rough ratios observed across the pack's hardware (L1 ~4-5 cycles, L2
// ~12-14, L3 ~40-60, memory ~200+).
func DefaultLatency() LatencyConfig {
	return LatencyConfig{
		L1Cycles:      4,
		L2Cycles:      12,
		L3Cycles:      40,
		MemoryCycles:  200,
		TLBMissCycles: 100,
	}
}

// HierarchyConfig bundles the three mandatory levels (L1d, L1i, L2) with an
// optional L3, an inclusion policy, a prefetch config and a latency config
// (spec.md §3's CacheHierarchyConfig).
type HierarchyConfig struct {
	L1D *CacheConfig
	L1I *CacheConfig
	L2  *CacheConfig
	L3  *CacheConfig // nil, or SizeKB==0, means absent

	Inclusion InclusionPolicy
	Prefetch  PrefetchConfig
	Latency   LatencyConfig
}

// Validate checks that the mandatory levels are present and, if L3 exists,
// that it is a valid CacheConfig too. L1D/L1I/L2 must be non-nil: they are
// constructed via New, which already enforces internal validity.
func (h *HierarchyConfig) Validate() error {
	if h.L1D == nil {
		return newConfigError("L1d configuration is required")
	}
	if h.L1I == nil {
		return newConfigError("L1i configuration is required")
	}
	if h.L2 == nil {
		return newConfigError("L2 configuration is required")
	}
	return nil
}

func (h *HierarchyConfig) HasL3() bool { return h.L3.Present() }

// DimensionError reports a fatal driver-level configuration mistake (unknown
// preset name, negative core count, prefetch degree < 1), per spec.md §7.
type DimensionError struct {
	cause error
}

func (e *DimensionError) Error() string { return "invalid dimension: " + e.cause.Error() }
func (e *DimensionError) Unwrap() error { return e.cause }

// NewDimensionError builds a DimensionError from a formatted message.
func NewDimensionError(format string, args ...any) *DimensionError {
	return &DimensionError{cause: fmt.Errorf(format, args...)}
}
