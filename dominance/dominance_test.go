package dominance

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/dominance/config"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
)

// combWindow has narrow log-Gaussian peaks at θ0·1.5^k, k in [-8, 8],
// sampled on 4000 log-spaced points over 1..1000
func combWindow(t *testing.T, id string, theta0 float64) *spectrum.Window {
	t.Helper()

	const sigma = 0.04
	freqs := common.LogSpace(0, math.Log(1000), 4000)
	mags := make([]float64, len(freqs))
	for _, pk := range harmonic.Grid(theta0, 1.5, -8, 8) {
		for i, f := range freqs {
			z := (math.Log(f) - math.Log(pk)) / sigma
			mags[i] += math.Exp(-0.5 * z * z)
		}
	}

	w, err := spectrum.Clean(id, freqs, mags, spectrum.DefaultMinSamples)
	require.NoError(t, err)
	return w
}

func flatWindow(t *testing.T, id string) *spectrum.Window {
	t.Helper()
	freqs := common.LogSpace(0, math.Log(100), 50)
	w, err := spectrum.Clean(id, freqs, make([]float64, len(freqs)), spectrum.DefaultMinSamples)
	require.NoError(t, err)
	return w
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.NTheta = 800
	cfg.PermutationCount = 2000
	cfg.Workers = 4
	return cfg
}

func calibrated(power float64) harmonic.CalibrationResult {
	return harmonic.CalibrationResult{BestTheta: 1, CapturedPower: power}
}

func TestNewOutcome(t *testing.T) {
	w := &spectrum.Window{ID: "w"}

	out := NewOutcome(w, calibrated(3), calibrated(2))
	assert.InDelta(t, 0.5, out.U, 1e-15)
	assert.Equal(t, 1.0, out.D)
	assert.True(t, out.Win)
	assert.True(t, out.InU)
	assert.True(t, out.InD)
	assert.True(t, out.InWin)
	assert.Empty(t, out.Excluded)

	// ties are losses for the primary ratio
	out = NewOutcome(w, calibrated(2), calibrated(2))
	assert.False(t, out.Win)
	assert.True(t, out.InWin)
	assert.Equal(t, 0.0, out.U)
}

func TestNewOutcomeDegenerate(t *testing.T) {
	w := &spectrum.Window{ID: "w"}
	undefined := harmonic.CalibrationResult{BestTheta: math.NaN()}

	out := NewOutcome(w, calibrated(4), undefined)
	assert.Equal(t, ExcludedAltDegenerate, out.Excluded)
	assert.True(t, math.IsNaN(out.U))
	assert.Equal(t, 4.0, out.D)
	assert.False(t, out.InU)
	assert.False(t, out.InD)
	assert.False(t, out.InWin)

	out = NewOutcome(w, undefined, calibrated(4))
	assert.Equal(t, ExcludedPrimaryDegenerate, out.Excluded)
	assert.False(t, out.InWin)

	out = NewOutcome(w, undefined, undefined)
	assert.Equal(t, ExcludedBothDegenerate, out.Excluded)
}

func TestCompareSinglePeak(t *testing.T) {
	// scenario A: one peak at f0 with k fixed to 0 recovers θ ≈ f0
	const f0 = 37.0
	freqs := common.LogSpace(0, math.Log(200), 6000)
	mags := make([]float64, len(freqs))
	for i, f := range freqs {
		mags[i] = 10 * math.Exp(-0.5*math.Pow((f-f0)/0.5, 2))
	}
	w, err := spectrum.Clean("peak", freqs, mags, spectrum.DefaultMinSamples)
	require.NoError(t, err)

	params := harmonic.CalibrationParams{KMin: 0, KMax: 0, NTheta: 4000}
	c, err := NewComparator(params, harmonic.Named(harmonic.ThreeHalves), harmonic.Named(harmonic.Golden))
	require.NoError(t, err)

	out := c.Compare(w)
	assert.InDelta(t, f0, out.ThetaPrimary, 0.1)
	assert.InDelta(t, 10, out.PowerPrimary, 0.1)
	// with k fixed to 0 both families are the same single harmonic
	assert.InDelta(t, out.PowerPrimary, out.PowerAlt, 0.1)
	assert.Empty(t, out.Excluded)
}

func TestCompareFlatZero(t *testing.T) {
	// scenario B
	cfg := testConfig()
	c, err := NewComparator(cfg.CalibrationParams(), cfg.RatioPrimary, cfg.RatioAlt)
	require.NoError(t, err)

	out := c.Compare(flatWindow(t, "flat"))
	assert.Equal(t, 0.0, out.PowerPrimary)
	assert.Equal(t, 0.0, out.PowerAlt)
	assert.True(t, math.IsNaN(out.U))
	assert.Equal(t, ExcludedBothDegenerate, out.Excluded)

	s := Summarize([]WindowOutcome{out}, 100, 1)
	assert.Equal(t, 1, s.Windows)
	assert.Equal(t, 1, s.Excluded)
	assert.Equal(t, 0, s.NU)
	assert.Equal(t, 0, s.NWin)
	assert.Equal(t, 0, s.NPerm)
	assert.True(t, math.IsNaN(s.U.Mean))
	assert.True(t, math.IsNaN(s.WinRate.PHat))
	assert.True(t, math.IsNaN(s.Permutation.PValue))
}

func TestNewComparatorRejectsBadInput(t *testing.T) {
	_, err := NewComparator(harmonic.CalibrationParams{KMin: 0, KMax: 0, NTheta: 1},
		harmonic.Named(harmonic.ThreeHalves), harmonic.Named(harmonic.Golden))
	assert.ErrorIs(t, err, harmonic.ErrInvalidParams)

	_, err = NewComparator(harmonic.DefaultCalibrationParams(),
		harmonic.Named(harmonic.ThreeHalves), harmonic.Ratio{Kind: harmonic.Custom})
	assert.ErrorIs(t, err, harmonic.ErrInvalidRatio)
}

func TestRunPrimaryDominates(t *testing.T) {
	// scenario C: every window is built on the 3/2 family
	windows := make([]*spectrum.Window, 20)
	for i := range windows {
		theta0 := math.Sqrt(1000) * math.Exp(0.01*float64(i-10))
		windows[i] = combWindow(t, fmt.Sprintf("w%02d", i), theta0)
	}

	r, err := NewRunner(testConfig())
	require.NoError(t, err)

	res, err := r.Run(context.Background(), windows)
	require.NoError(t, err)

	mainStats := res.Summary.Main
	assert.Equal(t, 20, res.Summary.Windows)
	assert.Equal(t, 20, mainStats.NWin)
	assert.Equal(t, 20, mainStats.NU)
	assert.Equal(t, 20, mainStats.NPerm)
	assert.Equal(t, 20, mainStats.WinRate.Wins)
	assert.Equal(t, 1.0, mainStats.WinRate.PHat)
	assert.Greater(t, mainStats.WinRate.Lo, 0.0)
	assert.Greater(t, mainStats.U.Mean, 0.0)
	assert.Less(t, mainStats.TTest.PValue, 0.01)
	assert.Less(t, mainStats.Permutation.PValue, 0.01)
	assert.NotEmpty(t, res.Summary.RunID)

	require.NotNil(t, res.Summary.Root2)
	assert.Equal(t, harmonic.Root2, res.Summary.Root2.RatioAlt.Kind)
	assert.Len(t, res.Root2Outcomes, 20)
}

func TestSummarizeSymmetricNoise(t *testing.T) {
	// scenario D: D is ±k for k = 1..10, so the observed mean is exactly 0
	var outcomes []WindowOutcome
	for k := 1; k <= 10; k++ {
		for _, sign := range []float64{1, -1} {
			w := &spectrum.Window{ID: fmt.Sprintf("w%02d%+.0f", k, sign)}
			outcomes = append(outcomes, NewOutcome(w, calibrated(10+sign*float64(k)), calibrated(10)))
		}
	}

	s := Summarize(outcomes, 5000, 123)
	assert.Equal(t, 20, s.NPerm)
	assert.Equal(t, 0.0, s.Permutation.Observed)
	assert.InDelta(t, 0.5, s.Permutation.PValue, 0.06)

	assert.Equal(t, 10, s.WinRate.Wins)
	assert.Equal(t, 0.5, s.WinRate.PHat)
	assert.Less(t, s.WinRate.Lo, 0.5)
	assert.Greater(t, s.WinRate.Hi, 0.5)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 100, 1)
	assert.Equal(t, 0, s.Windows)
	assert.Equal(t, 0, s.NU)
	assert.True(t, math.IsNaN(s.U.Mean))
	assert.True(t, math.IsNaN(s.TTest.T))
	assert.True(t, math.IsNaN(s.WinRate.Lo))
}

func TestSummarizeSeparateInclusionSets(t *testing.T) {
	w := &spectrum.Window{ID: "w"}
	outcomes := []WindowOutcome{
		NewOutcome(w, calibrated(3), calibrated(1)),
		NewOutcome(w, calibrated(1), calibrated(2)),
		NewOutcome(w, calibrated(5), harmonic.CalibrationResult{BestTheta: math.NaN()}),
	}
	// an included window with U undefined still counts for D and wins
	outcomes = append(outcomes, WindowOutcome{WindowID: "u-undefined", U: math.NaN(), D: 1, Win: true, InD: true, InWin: true})

	s := Summarize(outcomes, 100, 1)
	assert.Equal(t, 4, s.Windows)
	assert.Equal(t, 1, s.Excluded)
	assert.Equal(t, 2, s.NU)
	assert.Equal(t, 3, s.NWin)
	assert.Equal(t, 3, s.NPerm)
	assert.Equal(t, 2, s.WinRate.Wins)
	assert.InDelta(t, (2.0-0.5)/2, s.U.Mean, 1e-15)
}

func TestRunOrdersByWindowID(t *testing.T) {
	windows := []*spectrum.Window{
		combWindow(t, "c", 30),
		flatWindow(t, "a"),
		combWindow(t, "b", 33),
	}

	cfg := testConfig()
	cfg.RatioAlt = harmonic.Named(harmonic.Root2)

	r, err := NewRunner(cfg)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), windows)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "a", res.Outcomes[0].WindowID)
	assert.Equal(t, "b", res.Outcomes[1].WindowID)
	assert.Equal(t, "c", res.Outcomes[2].WindowID)
	assert.Equal(t, ExcludedBothDegenerate, res.Outcomes[0].Excluded)

	assert.Equal(t, 1, res.Summary.Main.Excluded)
	assert.Equal(t, 2, res.Summary.Main.NWin)

	// alt is already √2, so no side comparison
	assert.Nil(t, res.Summary.Root2)
	assert.Empty(t, res.Root2Outcomes)
}

func TestRunIsDeterministic(t *testing.T) {
	windows := []*spectrum.Window{
		combWindow(t, "x", 28),
		combWindow(t, "y", 31),
		combWindow(t, "z", 35),
	}

	cfg := testConfig()
	cfg.Workers = 1
	r1, err := NewRunner(cfg)
	require.NoError(t, err)
	cfg.Workers = 3
	r3, err := NewRunner(cfg)
	require.NoError(t, err)

	a, err := r1.Run(context.Background(), windows)
	require.NoError(t, err)
	b, err := r3.Run(context.Background(), windows)
	require.NoError(t, err)

	assert.Equal(t, a.Outcomes, b.Outcomes)
	assert.Equal(t, a.Summary.Main.Permutation.PValue, b.Summary.Main.Permutation.PValue)
	assert.NotEqual(t, a.Summary.RunID, b.Summary.RunID)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(testConfig())
	require.NoError(t, err)

	_, err = r.Run(ctx, []*spectrum.Window{combWindow(t, "w", 30)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.KMin, cfg.KMax = 2, 1
	_, err := NewRunner(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
