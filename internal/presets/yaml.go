package presets

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"

	"cachesim/internal/cacheconfig"
	"cachesim/internal/prefetch"
	"cachesim/internal/replacement"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// levelYAML is one level's geometry as it appears in a user-supplied YAML
// hierarchy file, mirroring the shape of the builtin geometry struct.
type levelYAML struct {
	SizeKB uint64 `yaml:"size_kb"`
	Assoc  int    `yaml:"assoc"`
}

// hierarchyYAML is the on-disk shape of a custom hierarchy config, read the
// way the teacher's internal/workflow reads targets.yaml: unmarshal into a
// plain struct, then validate via cacheconfig.New.
type hierarchyYAML struct {
	LineSize  uint64    `yaml:"line_size"`
	L1D       levelYAML `yaml:"l1d"`
	L1I       levelYAML `yaml:"l1i"`
	L2        levelYAML `yaml:"l2"`
	L3        levelYAML `yaml:"l3"`
	Inclusion string    `yaml:"inclusion"`
	Replacement string  `yaml:"replacement"`
	Prefetch  string    `yaml:"prefetch"`
	PrefetchDegree int  `yaml:"prefetch_degree"`
}

// LoadYAML reads a custom CacheHierarchyConfig from a YAML file (spec.md
// §6.5's user-supplied override), the same shape the builtin presets
// describe.
func LoadYAML(path string) (*cacheconfig.HierarchyConfig, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, errors.Wrap(err, "reading hierarchy config file")
	}
	var doc hierarchyYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing hierarchy config YAML")
	}

	inclusion, err := parseInclusion(doc.Inclusion)
	if err != nil {
		return nil, err
	}
	policy := replacement.LRU
	if doc.Replacement != "" {
		policy, err = replacement.ParsePolicy(doc.Replacement)
		if err != nil {
			return nil, err
		}
	}
	pfKind := prefetch.None
	if doc.Prefetch != "" {
		pfKind, err = prefetch.ParseKind(doc.Prefetch)
		if err != nil {
			return nil, err
		}
	}
	if doc.LineSize == 0 {
		doc.LineSize = 64
	}

	l1d, err := cacheconfig.New(doc.L1D.SizeKB, doc.L1D.Assoc, doc.LineSize, policy, cacheconfig.WriteBack)
	if err != nil {
		return nil, errors.Wrap(err, "l1d")
	}
	l1i, err := cacheconfig.New(doc.L1I.SizeKB, doc.L1I.Assoc, doc.LineSize, policy, cacheconfig.ReadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "l1i")
	}
	l2, err := cacheconfig.New(doc.L2.SizeKB, doc.L2.Assoc, doc.LineSize, policy, cacheconfig.WriteBack)
	if err != nil {
		return nil, errors.Wrap(err, "l2")
	}
	var l3 *cacheconfig.CacheConfig
	if doc.L3.SizeKB > 0 {
		l3, err = cacheconfig.New(doc.L3.SizeKB, doc.L3.Assoc, doc.LineSize, policy, cacheconfig.WriteBack)
		if err != nil {
			return nil, errors.Wrap(err, "l3")
		}
	}

	degree := doc.PrefetchDegree
	if degree == 0 {
		degree = 2
	}
	return &cacheconfig.HierarchyConfig{
		L1D: l1d, L1I: l1i, L2: l2, L3: l3,
		Inclusion: inclusion,
		Prefetch:  cacheconfig.PrefetchConfig{Kind: pfKind, Degree: degree},
		Latency:   cacheconfig.DefaultLatency(),
	}, nil
}

func parseInclusion(s string) (cacheconfig.InclusionPolicy, error) {
	switch s {
	case "", "inclusive":
		return cacheconfig.Inclusive, nil
	case "exclusive":
		return cacheconfig.Exclusive, nil
	case "nine":
		return cacheconfig.NINE, nil
	default:
		return 0, cacheconfig.NewDimensionError("unknown inclusion policy %q", s)
	}
}
