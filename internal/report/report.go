// Package report exports migration statistics and check results as an XLSX
// workbook with Summary, Validation and Integrity sheets.
package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tillpoint/tillpoint-server/internal/integrity"
	"github.com/tillpoint/tillpoint-server/internal/migration"
)

// Sheet names.
const (
	SheetSummary    = "Summary"
	SheetValidation = "Validation"
	SheetIntegrity  = "Integrity"
)

// Write builds the workbook and saves it to path. Any of the inputs may be
// nil; its sheet is written with headers only.
func Write(path string, stats *migration.Statistics, validation *migration.ValidationReport, checks *integrity.Report) error {
	f, err := Build(stats, validation, checks)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

// Build returns the workbook without saving it.
func Build(stats *migration.Statistics, validation *migration.ValidationReport, checks *integrity.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	w := &sheetWriter{f: f}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetValidation, SheetIntegrity} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}
	w.header = bold

	writeSummary(w, stats)
	writeValidation(w, validation)
	writeIntegrity(w, checks)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSummary(w *sheetWriter, st *migration.Statistics) {
	w.headerRow(SheetSummary, "Field", "Value")
	if st == nil {
		return
	}

	w.row(SheetSummary, "Current version", st.CurrentVersion)
	w.row(SheetSummary, "Target version", st.TargetVersion)
	w.row(SheetSummary, "Needs migration", strconv.FormatBool(st.NeedsMigration))
	w.row(SheetSummary, "Backups", st.Backups)
	w.row(SheetSummary, "Name table entries", st.NameTable.Total)
	w.row(SheetSummary, "Name table bijective", strconv.FormatBool(st.NameTable.Bijective()))
	w.row(SheetSummary)

	w.headerRow(SheetSummary, "Collection", "Present", "Records", "Legacy names", "Error")
	for _, c := range st.Collections {
		w.row(SheetSummary, c.Key, strconv.FormatBool(c.Present), c.Records, c.LegacyNames, c.Error)
	}
	w.f.SetColWidth(SheetSummary, "A", "A", 22)
	w.f.SetColWidth(SheetSummary, "E", "E", 40)
}

func writeValidation(w *sheetWriter, v *migration.ValidationReport) {
	w.headerRow(SheetValidation, "Severity", "Message")
	if v == nil {
		return
	}
	for _, msg := range v.Errors {
		w.row(SheetValidation, string(integrity.SeverityError), msg)
	}
	for _, msg := range v.Warnings {
		w.row(SheetValidation, string(integrity.SeverityWarning), msg)
	}
	w.f.SetColWidth(SheetValidation, "B", "B", 60)
}

func writeIntegrity(w *sheetWriter, r *integrity.Report) {
	w.headerRow(SheetIntegrity, "Severity", "Location", "Product", "Message")
	if r == nil {
		return
	}
	for _, fd := range r.Findings {
		w.row(SheetIntegrity, string(fd.Severity), fd.Location, fd.ProductName, fd.Message)
	}
	w.f.SetColWidth(SheetIntegrity, "B", "B", 24)
	w.f.SetColWidth(SheetIntegrity, "D", "D", 60)
}

// sheetWriter appends rows per sheet and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	next   map[string]int
	err    error
}

func (w *sheetWriter) headerRow(sheet string, values ...any) {
	cell := w.row(sheet, values...)
	if w.err != nil || cell == "" || len(values) == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), w.next[sheet]-1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, cell, last, w.header); err != nil {
		w.err = fmt.Errorf("style %s!%s: %w", sheet, cell, err)
	}
}

// row writes values to the next free row of sheet and returns its first
// cell name.
func (w *sheetWriter) row(sheet string, values ...any) string {
	if w.err != nil {
		return ""
	}
	if w.next == nil {
		w.next = map[string]int{}
	}
	if w.next[sheet] == 0 {
		w.next[sheet] = 1
	}

	cell, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return ""
	}
	w.next[sheet]++
	if len(values) == 0 {
		return cell
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		return ""
	}
	return cell
}
