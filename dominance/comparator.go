package dominance

import (
	"math"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/logging"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
)

// Exclusion reasons recorded on a WindowOutcome
const (
	ExcludedNone              = ""
	ExcludedPrimaryDegenerate = "degenerate_primary"
	ExcludedAltDegenerate     = "degenerate_alt"
	ExcludedBothDegenerate    = "degenerate_both"
)

// WindowOutcome compares two calibrations of the same window.
//
// D is always primary minus alternate power. U is primary/alt - 1 and is NaN
// when the alternate captured nothing. A window whose primary or alternate
// calibration found no θ is excluded from every statistic family and never
// counts as a loss.
type WindowOutcome struct {
	WindowID string `json:"window"`
	Source   string `json:"source,omitempty"`

	RatioPrimary harmonic.Ratio `json:"ratio_primary"`
	RatioAlt     harmonic.Ratio `json:"ratio_alt"`

	PowerPrimary float64 `json:"power_primary"`
	PowerAlt     float64 `json:"power_alt"`
	ThetaPrimary float64 `json:"theta_primary"`
	ThetaAlt     float64 `json:"theta_alt"`

	U   float64 `json:"u"`
	D   float64 `json:"d"`
	Win bool    `json:"win"`

	InU      bool   `json:"in_u"`
	InD      bool   `json:"in_d"`
	InWin    bool   `json:"in_win"`
	Excluded string `json:"excluded,omitempty"`

	FrequencyColumn string `json:"frequency_column,omitempty"`
	MagnitudeColumn string `json:"magnitude_column,omitempty"`
}

// NewOutcome derives the per-window metrics from two calibration results
func NewOutcome(w *spectrum.Window, primary, alt harmonic.CalibrationResult) WindowOutcome {
	out := WindowOutcome{
		WindowID:        w.ID,
		Source:          w.Source,
		RatioPrimary:    primary.Ratio,
		RatioAlt:        alt.Ratio,
		PowerPrimary:    primary.CapturedPower,
		PowerAlt:        alt.CapturedPower,
		ThetaPrimary:    primary.BestTheta,
		ThetaAlt:        alt.BestTheta,
		U:               math.NaN(),
		D:               primary.CapturedPower - alt.CapturedPower,
		Win:             primary.CapturedPower > alt.CapturedPower,
		FrequencyColumn: w.FrequencyColumn,
		MagnitudeColumn: w.MagnitudeColumn,
	}
	if alt.CapturedPower > 0 {
		out.U = primary.CapturedPower/alt.CapturedPower - 1
	}

	switch {
	case !primary.Calibrated() && !alt.Calibrated():
		out.Excluded = ExcludedBothDegenerate
	case !primary.Calibrated():
		out.Excluded = ExcludedPrimaryDegenerate
	case !alt.Calibrated():
		out.Excluded = ExcludedAltDegenerate
	}

	if out.Excluded == ExcludedNone {
		out.InD = true
		out.InWin = true
		out.InU = !math.IsNaN(out.U)
	}

	return out
}

// Comparator calibrates two ratios on a window and compares them
type Comparator struct {
	calibrator *harmonic.Calibrator
	primary    harmonic.Ratio
	alt        harmonic.Ratio
	logger     logging.Logger
}

// NewComparator creates a comparator for primary against alt
func NewComparator(params harmonic.CalibrationParams, primary, alt harmonic.Ratio) (*Comparator, error) {
	calibrator, err := harmonic.NewCalibrator(params)
	if err != nil {
		return nil, err
	}
	if err := primary.Validate(); err != nil {
		return nil, err
	}
	if err := alt.Validate(); err != nil {
		return nil, err
	}

	return &Comparator{
		calibrator: calibrator,
		primary:    primary,
		alt:        alt,
		logger: logging.WithFields(logging.Fields{
			"component": "window_comparator",
		}),
	}, nil
}

// Calibrator exposes the underlying θ calibrator
func (c *Comparator) Calibrator() *harmonic.Calibrator {
	return c.calibrator
}

// Primary returns the primary ratio
func (c *Comparator) Primary() harmonic.Ratio { return c.primary }

// Alt returns the alternate ratio
func (c *Comparator) Alt() harmonic.Ratio { return c.alt }

// Calibrate runs the calibrator for ratio on w
func (c *Comparator) Calibrate(w *spectrum.Window, ratio harmonic.Ratio) harmonic.CalibrationResult {
	return c.calibrator.Calibrate(ratio, w.Frequencies, w.Magnitudes)
}

// Compare calibrates both ratios on w and derives the outcome
func (c *Comparator) Compare(w *spectrum.Window) WindowOutcome {
	return c.Outcome(w, c.Calibrate(w, c.primary), c.Calibrate(w, c.alt))
}

// Outcome wraps NewOutcome and logs degenerate calibrations
func (c *Comparator) Outcome(w *spectrum.Window, primary, alt harmonic.CalibrationResult) WindowOutcome {
	out := NewOutcome(w, primary, alt)
	if out.Excluded != ExcludedNone {
		c.logger.Info("Window excluded from statistics", logging.Fields{
			"window":    w.ID,
			"reason":    "degenerate_calibration",
			"detail":    out.Excluded,
			"primary":   primary.Ratio.String(),
			"alternate": alt.Ratio.String(),
		})
	}
	return out
}
