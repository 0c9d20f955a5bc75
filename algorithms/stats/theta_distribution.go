package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// ThetaDistribution summarizes calibrated θ values on a log10 scale
type ThetaDistribution struct {
	N           int     `json:"n"`
	MedianLog10 float64 `json:"median_log10"`
	Q1Log10     float64 `json:"q1_log10"`
	Q3Log10     float64 `json:"q3_log10"`
	IQRLog10    float64 `json:"iqr_log10"`
}

// SummarizeThetas reports the median and interquartile range of log10(θ).
// Undefined (NaN) and non-positive θ values are skipped.
func SummarizeThetas(thetas []float64) ThetaDistribution {
	logs := make(mstats.Float64Data, 0, len(thetas))
	for _, theta := range thetas {
		if theta > 0 && !math.IsInf(theta, 0) {
			logs = append(logs, math.Log10(theta))
		}
	}

	result := ThetaDistribution{
		N:           len(logs),
		MedianLog10: math.NaN(),
		Q1Log10:     math.NaN(),
		Q3Log10:     math.NaN(),
		IQRLog10:    math.NaN(),
	}
	if len(logs) == 0 {
		return result
	}

	if median, err := logs.Median(); err == nil {
		result.MedianLog10 = median
	}
	if q, err := mstats.Quartile(logs); err == nil {
		result.Q1Log10 = q.Q1
		result.Q3Log10 = q.Q3
		result.IQRLog10 = q.Q3 - q.Q1
	}

	return result
}
