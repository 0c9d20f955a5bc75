package filters

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
)

// DCRemoval is a one-pole DC blocker: y[n] = x[n] - x[n-1] + R·y[n-1].
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	pole float64 // R, 0 < R < 1

	x1 float64 // x[n-1]
	y1 float64 // y[n-1]
}

// DefaultDCPole gives a cutoff of about 8 Hz at 44.1 kHz
const DefaultDCPole = 0.995

// NewDCRemoval creates a DC blocker with the default pole
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{pole: DefaultDCPole}
}

// NewDCRemovalWithCutoff places the pole for a -3 dB cutoff at cutoffHz,
// using R ≈ 1 - 2π·fc/fs (valid for fc << fs/2). R is clamped to
// [0.001, 0.999].
func NewDCRemovalWithCutoff(sampleRate int, cutoffHz float64) (*DCRemoval, error) {
	if sampleRate <= 0 || !(cutoffHz > 0) {
		return nil, fmt.Errorf("dc removal needs a positive sample rate and cutoff, got %d Hz / %g Hz", sampleRate, cutoffHz)
	}

	pole := 1.0 - 2.0*math.Pi*cutoffHz/float64(sampleRate)
	return &DCRemoval{pole: common.Clamp(pole, 0.001, 0.999)}, nil
}

// Process filters one sample
func (dc *DCRemoval) Process(x float64) float64 {
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1 = x
	dc.y1 = y
	return y
}

// ProcessBuffer filters a buffer into a new slice, carrying state across calls
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, x := range input {
		output[i] = dc.Process(x)
	}
	return output
}

// CutoffFrequency returns the approximate -3 dB cutoff, fc ≈ (1-R)·fs/(2π)
func (dc *DCRemoval) CutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return (1.0 - dc.pole) * float64(sampleRate) / (2.0 * math.Pi)
}
