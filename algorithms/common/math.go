package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum.
// Returns NaN for empty input.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// SampleStdDev calculates the standard deviation with the n-1 denominator.
// Returns NaN when fewer than two values are available.
func SampleStdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// IsFinite reports whether v is neither NaN nor an infinity
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FiniteValues returns the finite entries of data in their original order
func FiniteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// MinMax returns the smallest and largest values of a non-empty slice
func MinMax(data []float64) (float64, float64) {
	return floats.Min(data), floats.Max(data)
}

// LogSpace returns n values exp(lo) ... exp(hi) evenly spaced in log space.
// n must be at least 2.
func LogSpace(lo, hi float64, n int) []float64 {
	grid := floats.Span(make([]float64, n), lo, hi)
	for i, v := range grid {
		grid[i] = math.Exp(v)
	}
	return grid
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
