package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/RyanBlaney/sonido-ratio/dominance"
	"github.com/RyanBlaney/sonido-ratio/logging"
)

// Output file names inside a run directory
const (
	ResultsFile      = "results.csv"
	Root2ResultsFile = "results_sqrt2.csv"
	SummaryFile      = "summary.json"
	WorkbookFile     = "report.xlsx"
)

// RunDir returns <outputDir>/ratiodom_<timestamp>
func RunDir(outputDir string, at time.Time) string {
	return filepath.Join(outputDir, "ratiodom_"+at.Format("20060102_150405"))
}

// Writer renders run results into one directory
type Writer struct {
	dir    string
	logger logging.Logger
}

// NewWriter creates dir if needed
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{
		dir: dir,
		logger: logging.WithFields(logging.Fields{
			"component": "report_writer",
			"dir":       dir,
		}),
	}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteAll writes the outcome table(s), the JSON summary and the workbook,
// returning the written paths
func (w *Writer) WriteAll(res *dominance.Result) ([]string, error) {
	var paths []string

	path := filepath.Join(w.dir, ResultsFile)
	if err := WriteOutcomesCSV(path, res.Outcomes); err != nil {
		return paths, err
	}
	paths = append(paths, path)

	if len(res.Root2Outcomes) > 0 {
		path = filepath.Join(w.dir, Root2ResultsFile)
		if err := WriteOutcomesCSV(path, res.Root2Outcomes); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	path = filepath.Join(w.dir, SummaryFile)
	if err := WriteSummaryJSON(path, res.Summary); err != nil {
		return paths, err
	}
	paths = append(paths, path)

	path = filepath.Join(w.dir, WorkbookFile)
	if err := WriteWorkbook(path, res); err != nil {
		return paths, err
	}
	paths = append(paths, path)

	w.logger.Info("Report written", logging.Fields{
		"files":  len(paths),
		"run_id": res.Summary.RunID,
	})
	return paths, nil
}

// WriteSummaryJSON writes the summary as indented JSON
func WriteSummaryJSON(path string, s dominance.Summary) error {
	data, err := json.MarshalIndent(SummaryDocument(s), "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// SummaryDocument flattens a summary into JSON-safe values. Undefined
// numbers become null and infinities become "+Inf" / "-Inf".
func SummaryDocument(s dominance.Summary) map[string]any {
	doc := statsDocument(s.Main)
	doc["run_id"] = s.RunID
	doc["created_at"] = s.CreatedAt.Format(time.RFC3339)
	doc["n_windows"] = s.Windows
	doc["skipped"] = s.Skipped
	doc["kmin"] = s.Params.KMin
	doc["kmax"] = s.Params.KMax
	doc["n_theta"] = s.Params.NTheta
	doc["permutations"] = s.Permutations
	doc["seed"] = s.Seed

	if s.Root2 != nil {
		doc["sqrt2_comparison"] = statsDocument(*s.Root2)
	}
	return doc
}

func statsDocument(c dominance.ComparisonStats) map[string]any {
	return map[string]any{
		"r_main":         Number(c.RatioPrimary.Value),
		"r_alt":          Number(c.RatioAlt.Value),
		"ratio_main":     ratioName(c.RatioPrimary),
		"ratio_alt":      ratioName(c.RatioAlt),
		"windows":        c.Windows,
		"excluded":       c.Excluded,
		"n_U":            c.NU,
		"mean_U":         Number(c.U.Mean),
		"se_U":           Number(c.U.StdErr),
		"ci95_U_lo":      Number(c.U.Lo),
		"ci95_U_hi":      Number(c.U.Hi),
		"t_U":            Number(c.TTest.T),
		"p_U_one_sided":  Number(c.TTest.PValue),
		"p_U_student":    Number(c.TTest.PValueStudent),
		"wins":           c.WinRate.Wins,
		"n":              c.NWin,
		"phat_wins":      Number(c.WinRate.PHat),
		"wilson95_lo":    Number(c.WinRate.Lo),
		"wilson95_hi":    Number(c.WinRate.Hi),
		"n_perm":         c.NPerm,
		"mean_D":         Number(c.Permutation.Observed),
		"p_perm":         Number(c.Permutation.PValue),
		"theta_main_log": thetaDocument(c.ThetaPrimary.N, c.ThetaPrimary.MedianLog10, c.ThetaPrimary.IQRLog10),
		"theta_alt_log":  thetaDocument(c.ThetaAlt.N, c.ThetaAlt.MedianLog10, c.ThetaAlt.IQRLog10),
	}
}

func thetaDocument(n int, median, iqr float64) map[string]any {
	return map[string]any{
		"n":            n,
		"median_log10": Number(median),
		"iqr_log10":    Number(iqr),
	}
}

// Number maps a float to a JSON-encodable value
func Number(v float64) any {
	switch {
	case math.IsNaN(v):
		return nil
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return v
}

// formatFloat renders NaN and ±Inf the way strconv does
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
