package progress

// Copyright (C) 2021-2024 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cachesim/internal/processor"
)

func TestNewMultiSpinner(t *testing.T) {
	spinner := NewMultiSpinner()
	if spinner == nil {
		t.Fatal("failed to create a spinner")
	}
}

func TestMultiSpinner(t *testing.T) {
	spinner := NewMultiSpinner()
	if spinner == nil {
		t.Fatal("failed to create a spinner")
	}
	if spinner.AddSpinner("A") != nil {
		t.Fatal("failed to add spinner")
	}
	if spinner.AddSpinner("B") != nil {
		t.Fatal("failed to add spinner")
	}
	if spinner.AddSpinner("A") == nil {
		t.Fatal("added spinner with same label")
	}
	spinner.Start()

	if spinner.Status("A", "FOO") != nil {
		t.Fatal("failed to update spinner status")
	}
	if spinner.Status("B", "BAR") != nil {
		t.Fatal("failed to update spinner status")
	}
	if spinner.Status("C", "WOOPS") == nil {
		t.Fatal("updated status of non-existent spinner")
	}
	spinner.Finish()
}

func TestFormatAccess(t *testing.T) {
	got := formatAccess(processor.EventResult{Address: 0x100, Size: 8, L1Hit: true, L2Hit: false, L3Hit: false})
	want := "addr=0x100 size=8 l1=hit l2=miss l3=miss"
	if got != want {
		t.Fatalf("formatAccess() = %q, want %q", got, want)
	}
}

func TestReportAccess(t *testing.T) {
	spinner := NewMultiSpinner()
	if err := spinner.AddSpinner("trace"); err != nil {
		t.Fatalf("failed to add spinner: %v", err)
	}
	if err := spinner.ReportAccess("trace", processor.EventResult{Address: 0x200, Size: 4, L1Hit: false, L2Hit: true, L3Hit: false}); err != nil {
		t.Fatalf("ReportAccess failed: %v", err)
	}
	if err := spinner.ReportAccess("missing", processor.EventResult{}); err == nil {
		t.Fatal("expected error reporting access for unknown spinner label")
	}
}
