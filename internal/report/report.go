// Package report renders a stats.RunResult as text, JSON, or an Excel
// workbook (spec.md §6.3's output facade).
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cachesim/internal/stats"

	"github.com/pkg/errors"
)

// Write renders result in the given format ("text", "json", or "xlsx") and
// writes it to outputDir, except for "text" which also prints to stdout.
func Write(result stats.RunResult, format string, outputDir string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText(result, os.Stdout)
	case "json":
		return writeFile(outputDir, "cachesim_result.json", func(f *os.File) error {
			return writeJSON(result, f)
		})
	case "xlsx":
		return writeFile(outputDir, "cachesim_result.xlsx", func(f *os.File) error {
			return writeExcel(result, f)
		})
	default:
		return fmt.Errorf("unknown report format %q (want text, json, or xlsx)", format)
	}
}

func writeFile(outputDir, name string, fn func(*os.File) error) error {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(outputDir, name)
	f, err := os.Create(path) // #nosec G304 -- path built from operator-controlled output dir
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
