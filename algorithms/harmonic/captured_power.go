package harmonic

import (
	"math"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
)

// Grid returns the harmonic family θ·r^k for every integer k in [kMin, kMax]
func Grid(theta, ratio float64, kMin, kMax int) []float64 {
	if kMax < kMin {
		return []float64{}
	}

	grid := make([]float64, 0, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		grid = append(grid, theta*math.Pow(ratio, float64(k)))
	}
	return grid
}

// InBand keeps the harmonics inside the closed band [fMin, fMax]
func InBand(grid []float64, fMin, fMax float64) []float64 {
	kept := make([]float64, 0, len(grid))
	for _, f := range grid {
		if f >= fMin && f <= fMax {
			kept = append(kept, f)
		}
	}
	return kept
}

// CapturedPower sums the linearly interpolated magnitude at every harmonic of
// θ·r^k that falls inside the observed band. It is exactly 0 when no harmonic
// is observable.
//
// frequencies must be sorted ascending and match magnitudes in length;
// callers obtain both from a cleaned spectrum.Window.
func CapturedPower(theta, ratio float64, kMin, kMax int, frequencies, magnitudes []float64) float64 {
	if len(frequencies) == 0 || len(frequencies) != len(magnitudes) {
		return 0.0
	}

	fMin := frequencies[0]
	fMax := frequencies[len(frequencies)-1]

	harmonics := InBand(Grid(theta, ratio, kMin, kMax), fMin, fMax)

	sum := 0.0
	for _, m := range common.InterpolateAll(frequencies, magnitudes, harmonics) {
		sum += m
	}
	return sum
}
