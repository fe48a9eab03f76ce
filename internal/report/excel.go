package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"

	"cachesim/internal/stats"

	"github.com/xuri/excelize/v2"
)

const sheetName = "cachesim"

func cellName(col, row int) string {
	colName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	name, err := excelize.JoinCellName(colName, row)
	if err != nil {
		return ""
	}
	return name
}

func writeExcel(r stats.RunResult, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	writeHeader := func(text string) {
		_ = f.SetCellValue(sheetName, cellName(1, row), text)
		_ = f.SetCellStyle(sheetName, cellName(1, row), cellName(1, row), headerStyle)
		row++
	}
	writeRow := func(label string, values ...any) {
		_ = f.SetCellValue(sheetName, cellName(1, row), label)
		for i, v := range values {
			_ = f.SetCellValue(sheetName, cellName(2+i, row), v)
		}
		row++
	}

	writeHeader("Level")
	_ = f.SetCellValue(sheetName, cellName(2, row-1), "Hits")
	_ = f.SetCellValue(sheetName, cellName(3, row-1), "Misses")
	_ = f.SetCellValue(sheetName, cellName(4, row-1), "HitRate")
	_ = f.SetCellValue(sheetName, cellName(5, row-1), "Writebacks")
	writeRow("L1D", r.L1D.Hits, r.L1D.Misses, r.L1D.HitRate, r.L1D.Writebacks)
	writeRow("L1I", r.L1I.Hits, r.L1I.Misses, r.L1I.HitRate, r.L1I.Writebacks)
	writeRow("L2", r.L2.Hits, r.L2.Misses, r.L2.HitRate, r.L2.Writebacks)
	if r.HasL3 {
		writeRow("L3", r.L3.Hits, r.L3.Misses, r.L3.HitRate, r.L3.Writebacks)
	}
	row++

	if r.MultiCore != nil {
		writeHeader("Per-core L1")
		for i, c := range r.MultiCore.L1PerCore {
			writeRow(fmt.Sprintf("core %d", i), c.Hits, c.Misses, c.HitRate, c.Writebacks)
		}
		writeRow("Coherence invalidations", r.MultiCore.CoherenceInvalidations)
		writeRow("False-sharing lines", r.MultiCore.FalseSharingEvents)
		row++
	}

	writeHeader("Timing")
	writeRow("Total cycles", r.Timing.TotalCycles)
	writeRow("Avg latency", r.Timing.AvgLatency)
	row++

	if len(r.HotLines) > 0 {
		writeHeader("Hot source lines")
		_ = f.SetCellValue(sheetName, cellName(2, row-1), "Hits")
		_ = f.SetCellValue(sheetName, cellName(3, row-1), "Misses")
		_ = f.SetCellValue(sheetName, cellName(4, row-1), "Threads")
		for _, hl := range r.HotLines {
			writeRow(fmt.Sprintf("%s:%d", hl.File, hl.Line), hl.Hits, hl.Misses, hl.NumThreads)
		}
	}

	return f.Write(w)
}
