package harmonic

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
	"github.com/RyanBlaney/sonido-ratio/logging"
)

const (
	// minLogFrequency guards the logarithm of the band edges
	minLogFrequency = 1e-18

	// fallbackHalfWidth is the number of log(r) steps added around the band
	// when the derived search interval is degenerate
	fallbackHalfWidth = 5.0
)

// ErrInvalidParams is returned when calibration parameters are unusable
var ErrInvalidParams = errors.New("invalid calibration parameters")

// CalibrationParams contains the immutable search settings of a Calibrator
type CalibrationParams struct {
	KMin   int `json:"k_min" yaml:"k_min"`     // Lowest harmonic order
	KMax   int `json:"k_max" yaml:"k_max"`     // Highest harmonic order
	NTheta int `json:"n_theta" yaml:"n_theta"` // Number of log-spaced θ candidates
}

// DefaultCalibrationParams returns k in [-8, 8] with a 200 point θ grid
func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		KMin:   -8,
		KMax:   8,
		NTheta: 200,
	}
}

// Validate rejects parameter sets that indicate caller misuse
func (p CalibrationParams) Validate() error {
	if p.NTheta < 2 {
		return fmt.Errorf("%w: n_theta must be >= 2, got %d", ErrInvalidParams, p.NTheta)
	}
	if p.KMin > p.KMax {
		return fmt.Errorf("%w: k_min (%d) > k_max (%d)", ErrInvalidParams, p.KMin, p.KMax)
	}
	return nil
}

// ThetaSearchGrid is the log-spaced θ grid searched for one (band, ratio) pair
type ThetaSearchGrid struct {
	Thetas   []float64
	Min      float64 // exp(lower log bound)
	Max      float64 // exp(upper log bound)
	Fallback bool    // true when the symmetric fallback interval was used
}

// ThetaGrid derives the θ search interval so that the lowest order can reach
// the top of the band and the highest order can reach the bottom. For r > 1:
//
//	[log(fMin) - kMax·log(r), log(fMax) - kMin·log(r)]
//
// For r < 1 the roles of kMin and kMax swap, so the interval always ascends.
// When that interval is empty or non-finite it falls back to
// [log(fMin) - 5·|log(r)|, log(fMax) + 5·|log(r)|].
func ThetaGrid(fMin, fMax, ratio float64, kMin, kMax, nTheta int) ThetaSearchGrid {
	logR := math.Log(ratio)
	logMin := math.Log(math.Max(minLogFrequency, fMin))
	logMax := math.Log(math.Max(minLogFrequency, fMax))

	lowShift := float64(kMin) * logR
	highShift := float64(kMax) * logR
	if highShift < lowShift {
		lowShift, highShift = highShift, lowShift
	}

	lo := logMin - highShift
	hi := logMax - lowShift
	fallback := false

	if !common.IsFinite(lo) || !common.IsFinite(hi) || hi <= lo {
		halfWidth := fallbackHalfWidth * math.Abs(logR)
		lo = logMin - halfWidth
		hi = logMax + halfWidth
		fallback = true
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	if nTheta < 2 {
		nTheta = 2
	}

	return ThetaSearchGrid{
		Thetas:   common.LogSpace(lo, hi, nTheta),
		Min:      math.Exp(lo),
		Max:      math.Exp(hi),
		Fallback: fallback,
	}
}

// CalibrationResult is the outcome of one (window, ratio) calibration
type CalibrationResult struct {
	Ratio         Ratio   `json:"ratio"`
	BestTheta     float64 `json:"best_theta"`     // NaN when no θ captured any power
	CapturedPower float64 `json:"captured_power"` // >= 0
	ThetaMin      float64 `json:"theta_min"`
	ThetaMax      float64 `json:"theta_max"`
	Fallback      bool    `json:"fallback"`
	GridSize      int     `json:"grid_size"`
}

// Calibrated reports whether a θ was found, i.e. the pair can take part in a comparison
func (r CalibrationResult) Calibrated() bool {
	return !math.IsNaN(r.BestTheta)
}

// Calibrator searches the θ that maximizes captured power for a ratio.
//
// The search is a derivative-free scan over a log-spaced grid. The captured
// power surface is piecewise smooth with narrow peaks, so every grid point is
// evaluated and the first maximum (lowest θ) wins.
type Calibrator struct {
	params CalibrationParams
	logger logging.Logger
}

// NewCalibrator validates params and returns a calibrator
func NewCalibrator(params CalibrationParams) (*Calibrator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Calibrator{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "theta_calibrator",
		}),
	}, nil
}

// Params returns the calibrator settings
func (c *Calibrator) Params() CalibrationParams {
	return c.params
}

// Calibrate evaluates captured power across the θ grid for ratio.
// frequencies must be sorted ascending, positive and finite; magnitudes must
// be finite and non-negative.
func (c *Calibrator) Calibrate(ratio Ratio, frequencies, magnitudes []float64) CalibrationResult {
	result := CalibrationResult{
		Ratio:     ratio,
		BestTheta: math.NaN(),
	}
	if len(frequencies) == 0 || len(frequencies) != len(magnitudes) {
		return result
	}

	fMin, fMax := common.MinMax(frequencies)
	grid := ThetaGrid(fMin, fMax, ratio.Value, c.params.KMin, c.params.KMax, c.params.NTheta)

	result.ThetaMin = grid.Min
	result.ThetaMax = grid.Max
	result.Fallback = grid.Fallback
	result.GridSize = len(grid.Thetas)

	best := 0.0
	for _, theta := range grid.Thetas {
		power := CapturedPower(theta, ratio.Value, c.params.KMin, c.params.KMax, frequencies, magnitudes)
		// strict comparison keeps the first (lowest θ) maximizer
		if power > best {
			best = power
			result.BestTheta = theta
		}
	}
	result.CapturedPower = best

	if !result.Calibrated() {
		c.logger.Debug("No θ captured power", logging.Fields{
			"ratio":     ratio.String(),
			"theta_min": grid.Min,
			"theta_max": grid.Max,
			"fallback":  grid.Fallback,
		})
	}

	return result
}
