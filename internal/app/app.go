// Package app defines application-wide types and context shared across
// the command tree.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Context is the application-wide context threaded through cobra commands
// via cmd.Context(), set once in root's PersistentPreRunE.
type Context struct {
	Timestamp   string // Timestamp the application started, local time.
	OutputDir   string // OutputDir is where report files are written.
	LogFilePath string // LogFilePath is the path to the log file, empty if logging elsewhere.
	Version     string // Version of the application.
	Debug       bool   // Debug enables verbose logging and source locations.
}

// Flag names shared between the root command and subcommands.
const (
	FlagDebugName     = "debug"
	FlagLogStdOutName = "log-stdout"
	FlagOutputDirName = "output"
)
