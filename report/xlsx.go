package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/RyanBlaney/sonido-ratio/dominance"
)

// Sheet names of the workbook
const (
	SummarySheet = "Summary"
	WindowsSheet = "Windows"
	Root2Sheet   = "Sqrt2"
)

// WriteWorkbook writes a summary sheet plus one sheet of outcomes per
// comparison
func WriteWorkbook(path string, res *dominance.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, res.Summary); err != nil {
		return err
	}
	if err := writeOutcomeSheet(f, WindowsSheet, res.Outcomes); err != nil {
		return err
	}
	if len(res.Root2Outcomes) > 0 {
		if err := writeOutcomeSheet(f, Root2Sheet, res.Root2Outcomes); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s dominance.Summary) error {
	doc := SummaryDocument(s)
	delete(doc, "sqrt2_comparison")
	delete(doc, "theta_main_log")
	delete(doc, "theta_alt_log")

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := setRow(f, SummarySheet, 1, []any{"key", "value"}); err != nil {
		return err
	}
	for i, k := range keys {
		v := doc[k]
		if v == nil {
			v = ""
		}
		if err := setRow(f, SummarySheet, i+2, []any{k, v}); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcomeSheet(f *excelize.File, sheet string, outcomes []dominance.WindowOutcome) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]any, len(OutcomeHeader))
	for i, h := range OutcomeHeader {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, o := range outcomes {
		row := []any{
			o.WindowID, o.FrequencyColumn, o.MagnitudeColumn,
			ratioName(o.RatioPrimary), cellValue(o.PowerPrimary), cellValue(o.ThetaPrimary),
			ratioName(o.RatioAlt), cellValue(o.PowerAlt), cellValue(o.ThetaAlt),
			cellValue(o.U), cellValue(o.D), o.Win, o.Excluded,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue leaves undefined numbers blank and spells out infinities
func cellValue(v float64) any {
	if math.IsNaN(v) {
		return ""
	}
	if math.IsInf(v, 0) {
		return formatFloat(v)
	}
	return v
}
