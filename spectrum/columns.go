package spectrum

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var frequencyNames = map[string]bool{
	"f": true, "freq": true, "frequency": true, "hz": true,
}

var magnitudeNames = map[string]bool{
	"s": true, "pow": true, "power": true, "amp": true, "amplitude": true,
	"psd": true, "value": true, "mag": true,
}

// ColumnOptions forces specific column names instead of auto-detection
type ColumnOptions struct {
	FrequencyColumn string `json:"frequency_column" yaml:"frequency_column"`
	MagnitudeColumn string `json:"magnitude_column" yaml:"magnitude_column"`
}

// DetectColumns picks the frequency and magnitude columns of a table.
//
// Explicit names win when both exist in the header. Otherwise well-known
// names are matched case-insensitively, then the first two fully numeric
// columns are used, then simply the first two columns.
func DetectColumns(header []string, rows [][]string, opts ColumnOptions) (int, int, error) {
	if len(header) < 2 {
		return -1, -1, fmt.Errorf("%w: need at least two columns, got %d", ErrNoColumns, len(header))
	}

	if opts.FrequencyColumn != "" && opts.MagnitudeColumn != "" {
		fi, si := indexOf(header, opts.FrequencyColumn), indexOf(header, opts.MagnitudeColumn)
		if fi >= 0 && si >= 0 {
			return fi, si, nil
		}
	}

	fi, si := -1, -1
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if fi < 0 && frequencyNames[key] {
			fi = i
		}
		if si < 0 && magnitudeNames[key] {
			si = i
		}
	}
	if fi >= 0 && si >= 0 && fi != si {
		return fi, si, nil
	}

	var numeric []int
	for c := range header {
		if columnIsNumeric(rows, c) {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) >= 2 {
		return numeric[0], numeric[1], nil
	}

	return 0, 1, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func columnIsNumeric(rows [][]string, c int) bool {
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if c >= len(row) {
			return false
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64); err != nil {
			return false
		}
	}
	return true
}

// parseCell coerces a cell to a number; unparsable cells become NaN and are
// dropped later by Clean
func parseCell(row []string, c int) float64 {
	if c >= len(row) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FromTable builds a cleaned Window from a header row plus data rows
func FromTable(id string, table [][]string, opts ColumnOptions, minSamples int) (*Window, error) {
	if len(table) < 2 {
		return nil, fmt.Errorf("window %s: %w", id, ErrEmptyInput)
	}

	header, rows := table[0], table[1:]
	fi, si, err := DetectColumns(header, rows, opts)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", id, err)
	}

	freqs := make([]float64, len(rows))
	mags := make([]float64, len(rows))
	for i, row := range rows {
		freqs[i] = parseCell(row, fi)
		mags[i] = parseCell(row, si)
	}

	w, err := Clean(id, freqs, mags, minSamples)
	if err != nil {
		return nil, err
	}
	w.FrequencyColumn = header[fi]
	w.MagnitudeColumn = header[si]
	return w, nil
}
