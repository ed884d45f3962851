// Package xlsxexport writes a parsed report as a spreadsheet workbook with one sheet per
// tabular section.
package xlsxexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"clinsynth/internal/domain"
	"clinsynth/internal/extract"
)

// Sheet names, in workbook order.
const (
	SheetSummary         = "Summary"
	SheetFindings        = "Findings"
	SheetKeyValues       = "Key Values"
	SheetRecommendations = "Recommendations"
)

// Meta is the report metadata written at the top of the summary sheet.
type Meta struct {
	Title     string
	ReportID  string
	Provider  string
	Model     string
	CreatedAt string
	Documents int
}

type sheet struct {
	name   string
	header []string
	widths []float64
	rows   [][]interface{}
}

// Write builds the workbook for report and writes it to w.
func Write(w io.Writer, report *domain.ParsedReport, meta Meta) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("xlsxexport.Write: header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("xlsxexport.Write: body style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("xlsxexport.Write: %w", err)
	}
	if err := writeSummary(f, report, meta, bold, wrap); err != nil {
		return err
	}

	for _, s := range sheets(report) {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("xlsxexport.Write: new sheet %s: %w", s.name, err)
		}
		if err := writeTable(f, s, bold, wrap); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsxexport.Write: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *domain.ParsedReport, meta Meta, bold, wrap int) error {
	rows := [][]interface{}{
		{"Title", meta.Title},
		{"Report ID", meta.ReportID},
		{"Provider", meta.Provider},
		{"Model", meta.Model},
		{"Created At", meta.CreatedAt},
		{"Documents", meta.Documents},
		{"Summary", report.Summary},
	}
	if report.ClinicalCorrelations != nil {
		rows = append(rows, []interface{}{"Clinical Correlations", *report.ClinicalCorrelations})
	}
	if report.Uncertainties != nil {
		rows = append(rows, []interface{}{"Uncertainties", *report.Uncertainties})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsxexport.writeSummary: %w", err)
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("xlsxexport.writeSummary: row %d: %w", i+1, err)
		}
	}

	last := fmt.Sprintf("A%d", len(rows))
	if err := f.SetCellStyle(SheetSummary, "A1", last, bold); err != nil {
		return fmt.Errorf("xlsxexport.writeSummary: %w", err)
	}
	if err := f.SetCellStyle(SheetSummary, "B1", fmt.Sprintf("B%d", len(rows)), wrap); err != nil {
		return fmt.Errorf("xlsxexport.writeSummary: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 24); err != nil {
		return fmt.Errorf("xlsxexport.writeSummary: %w", err)
	}
	return f.SetColWidth(SheetSummary, "B", "B", 100)
}

func writeTable(f *excelize.File, s sheet, bold, wrap int) error {
	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return fmt.Errorf("xlsxexport.writeTable: %s header: %w", s.name, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return fmt.Errorf("xlsxexport.writeTable: %w", err)
	}
	if err := f.SetCellStyle(s.name, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("xlsxexport.writeTable: %w", err)
	}

	for i := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsxexport.writeTable: %w", err)
		}
		if err := f.SetSheetRow(s.name, cell, &s.rows[i]); err != nil {
			return fmt.Errorf("xlsxexport.writeTable: %s row %d: %w", s.name, i+2, err)
		}
	}
	if len(s.rows) > 0 {
		end := fmt.Sprintf("%s%d", lastCol, len(s.rows)+1)
		if err := f.SetCellStyle(s.name, "A2", end, wrap); err != nil {
			return fmt.Errorf("xlsxexport.writeTable: %w", err)
		}
	}

	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("xlsxexport.writeTable: %w", err)
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return fmt.Errorf("xlsxexport.writeTable: %w", err)
		}
	}

	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheets returns the tabular sheets. The key values sheet is present only when the
// report has key values.
func sheets(report *domain.ParsedReport) []sheet {
	findings := sheet{
		name:   SheetFindings,
		header: []string{"#", "Label", "Detail", "Source"},
		widths: []float64{6, 28, 80, 36},
	}
	for i, line := range report.KeyFindings {
		label, detail := extract.SplitFinding(line)
		findings.rows = append(findings.rows, []interface{}{
			i + 1,
			label,
			extract.StripCitations(extract.StripEmphasis(detail)),
			strings.Join(extract.Citations(line), " "),
		})
	}

	out := []sheet{findings}

	if len(report.KeyValues) > 0 {
		values := sheet{
			name:   SheetKeyValues,
			header: []string{"Test", "Value", "Unit", "Reference Range", "Source"},
			widths: []float64{30, 14, 12, 24, 36},
		}
		for _, line := range report.KeyValues {
			kv := extract.SplitKeyValue(line)
			values.rows = append(values.rows, []interface{}{kv.Test, kv.Value, kv.Unit, kv.Reference, kv.Source})
		}
		out = append(out, values)
	}

	recs := sheet{
		name:   SheetRecommendations,
		header: []string{"#", "Recommendation", "Source"},
		widths: []float64{6, 100, 36},
	}
	for i, line := range report.Recommendations {
		recs.rows = append(recs.rows, []interface{}{
			i + 1,
			extract.StripCitations(extract.StripEmphasis(line)),
			strings.Join(extract.Citations(line), " "),
		})
	}
	return append(out, recs)
}
