// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cmd provides the command line interface for the application.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cachesim/cmd/presets"
	"cachesim/cmd/run"
	"cachesim/internal/app"
	"cachesim/internal/util"

	"github.com/spf13/cobra"
)

var gLogFile *os.File
var gVersion = "0.1.0" // overwritten by ldflags in Makefile

const LongAppName = "cachesim"

var examples = []string{
	fmt.Sprintf("  Simulate a trace against a named hardware preset:    $ %s run --trace access.trace --preset zen3", app.Name),
	fmt.Sprintf("  List the available hardware presets:                $ %s presets", app.Name),
	fmt.Sprintf("  Simulate with a custom single-core geometry:        $ %s run --trace access.trace --l1-size 32 --l1-assoc 8 --l2-size 256 --l2-assoc 8", app.Name),
}

var rootCmd = &cobra.Command{
	Use:                app.Name,
	Short:              LongAppName,
	Long:               fmt.Sprintf(`%s is a trace-driven simulator of a multi-level, optionally multi-core CPU cache hierarchy.`, LongAppName),
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication,
	PersistentPostRunE: terminateApplication,
	Version:            gVersion,
}

var (
	flagDebug     bool
	flagLogStdOut bool
	flagOutputDir string
)

func init() {
	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command] [flags]{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)
	rootCmd.SetHelpCommand(&cobra.Command{})
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddCommand(run.Cmd)
	rootCmd.AddCommand(presets.Cmd)
	rootCmd.PersistentFlags().BoolVar(&flagDebug, app.FlagDebugName, false, "enable debug logging and source locations")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, app.FlagLogStdOutName, false, "write logs to stdout instead of a log file")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, app.FlagOutputDirName, "", "override the output directory (default: current directory)")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() once.
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	if err := rootCmd.Execute(); err != nil {
		if termErr := terminateApplication(rootCmd, os.Args); termErr != nil {
			slog.Error("error terminating application", slog.String("error", termErr.Error()))
		}
		os.Exit(1)
	}
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	timestamp := time.Now().Local().Format("2006-01-02_15-04-05")
	outputDir := flagOutputDir
	if outputDir == "" {
		outputDir = "."
	}
	var err error
	outputDir, err = util.AbsPath(outputDir)
	if err != nil {
		fmt.Printf("Error: failed to expand output dir: %v\n", err)
		os.Exit(1)
	}

	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
	}
	var logFilePath string
	if flagLogStdOut {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &logOpts)))
	} else {
		gLogFile, err = os.OpenFile(app.Name+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			fmt.Printf("Error: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logFilePath = gLogFile.Name()
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	}
	slog.Info("starting up", slog.String("app", app.Name), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))

	cmd.Root().SetContext(
		context.WithValue(
			context.Background(),
			app.Context{},
			app.Context{
				Timestamp:   timestamp,
				OutputDir:   outputDir,
				LogFilePath: logFilePath,
				Version:     gVersion,
				Debug:       flagDebug,
			},
		),
	)
	return nil
}

func terminateApplication(cmd *cobra.Command, args []string) error {
	slog.Info("shutting down", slog.String("app", app.Name), slog.String("version", gVersion), slog.Int("PID", os.Getpid()))
	if gLogFile != nil {
		if err := gLogFile.Close(); err != nil {
			slog.Error("error closing log file", slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}
