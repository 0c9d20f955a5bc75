package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCRemovalDecaysConstant(t *testing.T) {
	dc := NewDCRemoval()
	in := make([]float64, 5000)
	for i := range in {
		in[i] = 3
	}

	out := dc.ProcessBuffer(in)
	assert.Equal(t, 3.0, out[0])
	assert.Less(t, math.Abs(out[len(out)-1]), 1e-6)
}

func TestDCRemovalKeepsTone(t *testing.T) {
	dc, err := NewDCRemovalWithCutoff(8000, 5)
	require.NoError(t, err)

	n := 8000
	peak := 0.0
	for i := range n {
		x := 1 + math.Sin(2*math.Pi*1000*float64(i)/8000)
		y := dc.Process(x)
		if i > n/2 {
			peak = math.Max(peak, math.Abs(y))
		}
	}
	assert.InDelta(t, 1.0, peak, 0.02)
}

func TestDCRemovalCutoff(t *testing.T) {
	dc, err := NewDCRemovalWithCutoff(44100, 10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, dc.CutoffFrequency(44100), 1e-9)

	// a cutoff near Nyquist clamps the pole instead of going negative
	wide, err := NewDCRemovalWithCutoff(8000, 3900)
	require.NoError(t, err)
	assert.InDelta(t, (1-0.001)*8000/(2*math.Pi), wide.CutoffFrequency(8000), 1e-9)

	_, err = NewDCRemovalWithCutoff(0, 10)
	assert.Error(t, err)
	_, err = NewDCRemovalWithCutoff(44100, 0)
	assert.Error(t, err)
}
