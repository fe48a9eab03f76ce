// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package run implements the "run" subcommand: simulate a trace file
// against a cache hierarchy and emit a result report.
package run

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"cachesim/internal/app"
	"cachesim/internal/cacheconfig"
	"cachesim/internal/metricsexport"
	"cachesim/internal/multicore"
	"cachesim/internal/prefetch"
	"cachesim/internal/presets"
	"cachesim/internal/processor"
	"cachesim/internal/progress"
	"cachesim/internal/replacement"
	"cachesim/internal/report"
	"cachesim/internal/stats"
	"cachesim/internal/system"
	"cachesim/internal/tlb"
	"cachesim/internal/trace"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const cmdName = "run"

var (
	flagTrace       string
	flagConfigFile  string
	flagPreset      string
	flagCores       int
	flagPrefetch    string
	flagPfDegree    int
	flagFormat      string
	flagHotLines    int
	flagStream      bool
	flagMetricsAddr string
	flagValidate    bool
	flagL1SizeKB    uint64
	flagL1Assoc     int
	flagL1LineSize  uint64
	flagL2SizeKB    uint64
	flagL2Assoc     int
	flagL3SizeKB    uint64
	flagL3Assoc     int
	flagDTLBSets    uint64
	flagDTLBAssoc   int
)

// Cmd is the "run" subcommand.
var Cmd = &cobra.Command{
	Use:   cmdName,
	Short: "Simulate a trace against a cache hierarchy",
	RunE:  runRun,
}

func init() {
	Cmd.Flags().StringVar(&flagTrace, "trace", "", "path to the trace file (required)")
	Cmd.Flags().StringVar(&flagConfigFile, "config", "", "path to a YAML hierarchy config file (overrides --preset and --l1-size)")
	Cmd.Flags().StringVar(&flagPreset, "preset", "educational", "named hardware preset (see 'presets' command), ignored if --l1-size or --config is set")
	Cmd.Flags().IntVar(&flagCores, "cores", 1, "number of cores; >1 enables MESI coherence and false-sharing tracking")
	Cmd.Flags().StringVar(&flagPrefetch, "prefetch", "", "override the preset's prefetcher: none, next_line, stream, stride, adaptive, intel")
	Cmd.Flags().IntVar(&flagPfDegree, "prefetch-degree", 2, "number of lines the prefetcher issues ahead")
	Cmd.Flags().StringVar(&flagFormat, "format", "text", "report format: text, json, xlsx")
	Cmd.Flags().IntVar(&flagHotLines, "hot-lines", 10, "number of hot source lines to report, by misses descending")
	Cmd.Flags().BoolVar(&flagStream, "stream", false, "print a per-event hit/miss line as the trace is processed")
	Cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics at this address (e.g. :9090) until the run completes")
	Cmd.Flags().BoolVar(&flagValidate, "validate", false, "cross-check result invariants after the run and report any violation")
	Cmd.Flags().Uint64Var(&flagL1SizeKB, "l1-size", 0, "custom L1d/L1i size in KB (overrides --preset)")
	Cmd.Flags().IntVar(&flagL1Assoc, "l1-assoc", 8, "custom L1 associativity")
	Cmd.Flags().Uint64Var(&flagL1LineSize, "l1-line", 64, "custom line size in bytes")
	Cmd.Flags().Uint64Var(&flagL2SizeKB, "l2-size", 0, "custom L2 size in KB")
	Cmd.Flags().IntVar(&flagL2Assoc, "l2-assoc", 8, "custom L2 associativity")
	Cmd.Flags().Uint64Var(&flagL3SizeKB, "l3-size", 0, "custom L3 size in KB, 0 means absent")
	Cmd.Flags().IntVar(&flagL3Assoc, "l3-assoc", 16, "custom L3 associativity")
	Cmd.Flags().Uint64Var(&flagDTLBSets, "dtlb-sets", 64, "DTLB set count")
	Cmd.Flags().IntVar(&flagDTLBAssoc, "dtlb-assoc", 4, "DTLB associativity")
}

func buildHierarchy() (*cacheconfig.HierarchyConfig, error) {
	if flagConfigFile != "" {
		return presets.LoadYAML(flagConfigFile)
	}
	if flagL1SizeKB == 0 {
		return presets.Build(flagPreset)
	}
	if flagL2SizeKB == 0 {
		return nil, cacheconfig.NewDimensionError("--l2-size is required when --l1-size is set")
	}
	l1d, err := cacheconfig.New(flagL1SizeKB, flagL1Assoc, flagL1LineSize, replacement.LRU, cacheconfig.WriteBack)
	if err != nil {
		return nil, err
	}
	l1i, err := cacheconfig.New(flagL1SizeKB, flagL1Assoc, flagL1LineSize, replacement.LRU, cacheconfig.ReadOnly)
	if err != nil {
		return nil, err
	}
	l2, err := cacheconfig.New(flagL2SizeKB, flagL2Assoc, flagL1LineSize, replacement.LRU, cacheconfig.WriteBack)
	if err != nil {
		return nil, err
	}
	var l3 *cacheconfig.CacheConfig
	if flagL3SizeKB > 0 {
		l3, err = cacheconfig.New(flagL3SizeKB, flagL3Assoc, flagL1LineSize, replacement.LRU, cacheconfig.WriteBack)
		if err != nil {
			return nil, err
		}
	}
	return &cacheconfig.HierarchyConfig{
		L1D: l1d, L1I: l1i, L2: l2, L3: l3,
		Inclusion: cacheconfig.Inclusive,
		Prefetch:  cacheconfig.PrefetchConfig{Kind: prefetch.None, Degree: flagPfDegree},
		Latency:   cacheconfig.DefaultLatency(),
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if flagTrace == "" {
		return errors.New("--trace is required")
	}
	if flagCores < 1 {
		return cacheconfig.NewDimensionError("--cores must be at least 1, got %d", flagCores)
	}

	cfg, err := buildHierarchy()
	if err != nil {
		return errors.Wrap(err, "building cache hierarchy")
	}
	if flagPrefetch != "" {
		kind, err := prefetch.ParseKind(flagPrefetch)
		if err != nil {
			return errors.Wrap(err, "parsing --prefetch")
		}
		cfg.Prefetch = cacheconfig.PrefetchConfig{Kind: kind, Degree: flagPfDegree}
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "validating cache hierarchy")
	}

	f, err := os.Open(flagTrace)
	if err != nil {
		return errors.Wrap(err, "opening trace file")
	}
	defer f.Close()

	var exporter *metricsexport.Exporter
	if flagMetricsAddr != "" {
		exporter = metricsexport.New()
		stop, err := exporter.Serve(flagMetricsAddr)
		if err != nil {
			return errors.Wrap(err, "starting metrics listener")
		}
		defer stop()
	}

	spinner := progress.NewMultiSpinner()
	if flagStream {
		_ = spinner.AddSpinner("trace")
		spinner.Start()
		defer spinner.Finish()
	}

	onEvent := func(ev processor.EventResult) {
		if exporter != nil {
			exporter.ObserveEvent(ev.L1Hit, ev.L2Hit, ev.L3Hit)
		}
		if flagStream {
			_ = spinner.ReportAccess("trace", ev)
		}
	}

	rng := rand.New(rand.NewSource(1)) // #nosec G404 -- deterministic simulation, not security-sensitive

	var result stats.RunResult
	if flagCores == 1 {
		result, err = runSingleCore(cfg, rng, f, onEvent)
	} else {
		result, err = runMultiCore(cfg, flagCores, rng, f, onEvent)
	}
	if err != nil {
		return err
	}

	if flagValidate {
		violations := stats.Validate(result)
		if len(violations) == 0 {
			fmt.Println("validate: no invariant violations found")
		} else {
			fmt.Printf("validate: %d invariant violation(s) found:\n", len(violations))
			for _, v := range violations {
				fmt.Printf("  %s\n", v)
			}
		}
	}

	appCtx, _ := cmd.Root().Context().Value(app.Context{}).(app.Context)
	slog.Info("run complete", slog.String("trace", flagTrace), slog.Int("cores", flagCores))
	return report.Write(result, flagFormat, appCtx.OutputDir)
}

func runSingleCore(cfg *cacheconfig.HierarchyConfig, rng *rand.Rand, f *os.File, onEvent func(processor.EventResult)) (stats.RunResult, error) {
	sys, err := system.New(cfg, rng)
	if err != nil {
		return stats.RunResult{}, errors.Wrap(err, "constructing cache system")
	}
	dtlb := tlb.New(flagDTLBSets, flagDTLBAssoc)
	proc := processor.New(sys, onEvent)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		ev, ok, err := trace.Parse(scanner.Text())
		if err != nil {
			return stats.RunResult{}, errors.Wrapf(err, "trace line %d", lineNo)
		}
		if !ok {
			continue
		}
		if !ev.IsICache {
			dtlb.Access(ev.Address)
		}
		proc.Process(ev)
	}
	if err := scanner.Err(); err != nil {
		return stats.RunResult{}, errors.Wrap(err, "reading trace file")
	}

	return stats.BuildSingleCore(sys, proc, dtlb.Stats(), cfg.Latency, flagHotLines)
}

func runMultiCore(cfg *cacheconfig.HierarchyConfig, numCores int, rng *rand.Rand, f *os.File, onEvent func(processor.EventResult)) (stats.RunResult, error) {
	sys, err := multicore.New(cfg, numCores, flagDTLBSets, flagDTLBAssoc, rng)
	if err != nil {
		return stats.RunResult{}, errors.Wrap(err, "constructing multi-core cache system")
	}
	proc := processor.NewMultiCore(sys, cfg.L1D.LineSize, onEvent)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		ev, ok, err := trace.Parse(scanner.Text())
		if err != nil {
			return stats.RunResult{}, errors.Wrapf(err, "trace line %d", lineNo)
		}
		if !ok {
			continue
		}
		proc.Process(ev)
	}
	if err := scanner.Err(); err != nil {
		return stats.RunResult{}, errors.Wrap(err, "reading trace file")
	}

	return stats.BuildMultiCore(sys, proc, cfg.Latency, flagHotLines)
}
