package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	x := []float64{1, 2, 4, 8}
	y := []float64{10, 20, 40, 0}

	assert.InDelta(t, 10.0, Interpolate(x, y, 1), 1e-12)
	assert.InDelta(t, 15.0, Interpolate(x, y, 1.5), 1e-12)
	assert.InDelta(t, 30.0, Interpolate(x, y, 3), 1e-12)
	assert.InDelta(t, 20.0, Interpolate(x, y, 6), 1e-12)
	assert.InDelta(t, 0.0, Interpolate(x, y, 8), 1e-12)

	// clamped outside the band
	assert.InDelta(t, 10.0, Interpolate(x, y, 0.1), 1e-12)
	assert.InDelta(t, 0.0, Interpolate(x, y, 100), 1e-12)

	assert.Equal(t, 0.0, Interpolate(nil, nil, 1))
}

func TestInterpolateAll(t *testing.T) {
	got := InterpolateAll([]float64{0, 10}, []float64{0, 1}, []float64{2.5, 5, 7.5})
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75}, got, 1e-12)
}

func TestMeanAndStdDev(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)

	assert.True(t, math.IsNaN(SampleStdDev([]float64{1})))
	// sample variance of 1..4 is 5/3
	assert.InDelta(t, math.Sqrt(5.0/3.0), SampleStdDev([]float64{1, 2, 3, 4}), 1e-12)
}

func TestFiniteValues(t *testing.T) {
	got := FiniteValues([]float64{1, math.NaN(), 2, math.Inf(1), math.Inf(-1), 3})
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestLogSpace(t *testing.T) {
	grid := LogSpace(math.Log(1), math.Log(100), 3)
	assert.InDeltaSlice(t, []float64{1, 10, 100}, grid, 1e-9)
}
