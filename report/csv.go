package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/dominance"
)

// OutcomeHeader is the column order of the outcome table
var OutcomeHeader = []string{
	"window", "fcol", "scol",
	"ratio_main", "pstar_main", "theta_main",
	"ratio_alt", "pstar_alt", "theta_alt",
	"U", "D", "win", "excluded",
}

// OutcomeRow renders one outcome in OutcomeHeader order
func OutcomeRow(o dominance.WindowOutcome) []string {
	return []string{
		o.WindowID, o.FrequencyColumn, o.MagnitudeColumn,
		ratioName(o.RatioPrimary), formatFloat(o.PowerPrimary), formatFloat(o.ThetaPrimary),
		ratioName(o.RatioAlt), formatFloat(o.PowerAlt), formatFloat(o.ThetaAlt),
		formatFloat(o.U), formatFloat(o.D), strconv.FormatBool(o.Win), o.Excluded,
	}
}

// WriteOutcomesCSV writes one row per window
func WriteOutcomesCSV(path string, outcomes []dominance.WindowOutcome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(OutcomeHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := w.Write(OutcomeRow(o)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ratioName renders a ratio by keyword ("1.5", "golden") or by value
func ratioName(r harmonic.Ratio) string {
	text, err := r.MarshalText()
	if err != nil {
		return r.String()
	}
	return string(text)
}
