package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
)

// Z95 is the two-sided 97.5% standard normal quantile
const Z95 = 1.959963984540054

// MeanCIResult holds the sample mean of a metric with its normal 95% interval
type MeanCIResult struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`    // NaN when N == 0
	StdErr float64 `json:"std_err"` // sd/√n with n-1 denominator, NaN when N <= 1
	Lo     float64 `json:"ci95_lo"` // NaN when StdErr is undefined
	Hi     float64 `json:"ci95_hi"`
}

// MeanCI computes the mean, standard error and Mean ± Z95·SE over the finite
// values of x. Non-finite values are ignored, matching the U inclusion rule.
func MeanCI(x []float64) MeanCIResult {
	values := common.FiniteValues(x)
	n := len(values)

	result := MeanCIResult{
		N:      n,
		Mean:   math.NaN(),
		StdErr: math.NaN(),
		Lo:     math.NaN(),
		Hi:     math.NaN(),
	}
	if n == 0 {
		return result
	}

	result.Mean = common.Mean(values)
	if n > 1 {
		result.StdErr = common.SampleStdDev(values) / math.Sqrt(float64(n))
		result.Lo = result.Mean - Z95*result.StdErr
		result.Hi = result.Mean + Z95*result.StdErr
	}

	return result
}

// TTestResult holds a one-sample, one-sided t-test against a null mean
type TTestResult struct {
	N      int     `json:"n"`
	NullMu float64 `json:"null_mu"`
	T      float64 `json:"t"`       // ±Inf when the sample has zero spread
	PValue float64 `json:"p_value"` // 0.5·erfc(t/√2)

	// PValueStudent uses the Student-t survival function with n-1 degrees of
	// freedom. It is reported alongside the normal approximation.
	PValueStudent float64 `json:"p_value_student"`
}

// OneSidedTTest tests H1: mean(x) > mu0 over the finite values of x.
//
// With fewer than two values the statistic is undefined (NaN). When the
// sample standard deviation is exactly zero, t is +Inf (p = 0) if the mean
// exceeds mu0 and -Inf (p = 1) otherwise.
func OneSidedTTest(x []float64, mu0 float64) TTestResult {
	values := common.FiniteValues(x)
	n := len(values)

	result := TTestResult{
		N:             n,
		NullMu:        mu0,
		T:             math.NaN(),
		PValue:        math.NaN(),
		PValueStudent: math.NaN(),
	}
	if n < 2 {
		return result
	}

	mean := common.Mean(values)
	sd := common.SampleStdDev(values)

	if sd == 0 {
		if mean > mu0 {
			result.T, result.PValue = math.Inf(1), 0.0
		} else {
			result.T, result.PValue = math.Inf(-1), 1.0
		}
		result.PValueStudent = result.PValue
		return result
	}

	result.T = (mean - mu0) / (sd / math.Sqrt(float64(n)))
	result.PValue = 0.5 * math.Erfc(result.T/math.Sqrt2)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	result.PValueStudent = tDist.Survival(result.T)

	return result
}

// WilsonResult is a binomial proportion with its Wilson score interval
type WilsonResult struct {
	Wins int     `json:"wins"`
	N    int     `json:"n"`
	PHat float64 `json:"phat"`     // NaN when N == 0
	Lo   float64 `json:"wilson_lo"` // NaN when N == 0
	Hi   float64 `json:"wilson_hi"`
}

// Wilson computes the 95% Wilson score interval for wins out of n.
//
// The interval is clamped to [0, 1] and widened, if rounding requires it,
// so that Lo <= PHat <= Hi always holds.
func Wilson(wins, n int) WilsonResult {
	result := WilsonResult{
		Wins: wins,
		N:    n,
		PHat: math.NaN(),
		Lo:   math.NaN(),
		Hi:   math.NaN(),
	}
	if n <= 0 {
		return result
	}

	nf := float64(n)
	z2 := Z95 * Z95
	phat := float64(wins) / nf

	denom := 1.0 + z2/nf
	center := (phat + z2/(2*nf)) / denom
	radius := (Z95 / denom) * math.Sqrt(phat*(1-phat)/nf+z2/(4*nf*nf))

	result.PHat = phat
	result.Lo = math.Min(math.Max(0.0, center-radius), phat)
	result.Hi = math.Max(math.Min(1.0, center+radius), phat)

	return result
}
