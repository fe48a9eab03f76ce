// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package presets implements the "presets" subcommand: list and describe
// the named hardware geometries available to "run --preset".
package presets

import (
	"fmt"

	"cachesim/internal/presets"

	"github.com/spf13/cobra"
)

const cmdName = "presets"

var flagDescribe string

// Cmd is the "presets" subcommand.
var Cmd = &cobra.Command{
	Use:   cmdName,
	Short: "List available hardware cache presets",
	RunE:  runPresets,
}

func init() {
	Cmd.Flags().StringVar(&flagDescribe, "describe", "", "print the full geometry of one named preset")
}

func runPresets(cmd *cobra.Command, args []string) error {
	if flagDescribe != "" {
		cfg, err := presets.Build(flagDescribe)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", flagDescribe)
		fmt.Printf("  L1D: %dKB, %d-way, %dB lines\n", cfg.L1D.SizeKB, cfg.L1D.Assoc, cfg.L1D.LineSize)
		fmt.Printf("  L1I: %dKB, %d-way\n", cfg.L1I.SizeKB, cfg.L1I.Assoc)
		fmt.Printf("  L2:  %dKB, %d-way\n", cfg.L2.SizeKB, cfg.L2.Assoc)
		if cfg.HasL3() {
			fmt.Printf("  L3:  %dKB, %d-way\n", cfg.L3.SizeKB, cfg.L3.Assoc)
		} else {
			fmt.Println("  L3:  absent")
		}
		fmt.Printf("  Inclusion: %s\n", cfg.Inclusion)
		fmt.Printf("  Default prefetcher: %s\n", cfg.Prefetch.Kind)
		return nil
	}
	for _, name := range presets.Names() {
		fmt.Println(name)
	}
	return nil
}
