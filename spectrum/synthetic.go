package spectrum

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
)

const syntheticStream = 0x53594e5448455449

// SynthParams controls the synthetic corpus: each window carries two
// geometric peak families θ·r^k, one per ratio, over a log-spaced grid.
type SynthParams struct {
	Files   int            `json:"files" yaml:"files"`
	Points  int            `json:"points" yaml:"points"`
	FMin    float64        `json:"f_min" yaml:"f_min"`
	FMax    float64        `json:"f_max" yaml:"f_max"`
	KMin    int            `json:"k_min" yaml:"k_min"`
	KMax    int            `json:"k_max" yaml:"k_max"`
	Seed    uint64         `json:"seed" yaml:"seed"`
	Main    harmonic.Ratio `json:"main" yaml:"main"`
	Alt     harmonic.Ratio `json:"alt" yaml:"alt"`
	Noise   float64        `json:"noise" yaml:"noise"` // sd of additive Gaussian noise
	Pattern string         `json:"pattern" yaml:"pattern"`
}

// DefaultSynthParams returns 12 windows of 2000 points over 0.5..500 Hz
func DefaultSynthParams() SynthParams {
	return SynthParams{
		Files:   12,
		Points:  2000,
		FMin:    0.5,
		FMax:    500,
		KMin:    -8,
		KMax:    8,
		Seed:    123,
		Main:    harmonic.Named(harmonic.ThreeHalves),
		Alt:     harmonic.Named(harmonic.Golden),
		Noise:   0.02,
		Pattern: "synthetic_window_%02d.csv",
	}
}

func (p SynthParams) validate() error {
	switch {
	case p.Files < 1:
		return fmt.Errorf("synthetic files must be positive: %d", p.Files)
	case p.Points < 2:
		return fmt.Errorf("synthetic points must be at least 2: %d", p.Points)
	case !(p.FMin > 0) || !(p.FMax > p.FMin):
		return fmt.Errorf("synthetic band must satisfy 0 < f_min < f_max: [%g, %g]", p.FMin, p.FMax)
	case p.KMin > p.KMax:
		return fmt.Errorf("synthetic k range is empty: [%d, %d]", p.KMin, p.KMax)
	case p.Noise < 0:
		return fmt.Errorf("synthetic noise must not be negative: %g", p.Noise)
	}
	if err := p.Main.Validate(); err != nil {
		return err
	}
	return p.Alt.Validate()
}

// Synthesize builds the synthetic windows in memory. The same params always
// produce the same windows.
func Synthesize(p SynthParams) ([]*Window, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	src := rand.NewPCG(p.Seed, syntheticStream)
	uniform := func(lo, hi float64) float64 {
		return distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
	}
	noise := distuv.Normal{Mu: 0, Sigma: p.Noise, Src: src}

	freqs := common.LogSpace(math.Log(p.FMin), math.Log(p.FMax), p.Points)

	windows := make([]*Window, 0, p.Files)
	for i := 0; i < p.Files; i++ {
		thetaMain := math.Exp(uniform(math.Log(1.2), math.Log(3.5)))
		thetaAlt := math.Exp(uniform(math.Log(0.9), math.Log(2.2)))
		amp1 := uniform(1.5, 3.5)
		amp2 := uniform(0.8, 2.0)
		width1 := uniform(0.3, 1.2)
		width2 := uniform(0.3, 1.2)

		mags := make([]float64, len(freqs))
		addPeaks(freqs, mags, thetaMain, p.Main.Value, p.KMin, p.KMax, amp1, width1)
		addPeaks(freqs, mags, thetaAlt, p.Alt.Value, p.KMin, p.KMax, amp2, width2)

		for j, f := range freqs {
			mags[j] += 0.2 * math.Pow(f, -0.3)
			if p.Noise > 0 {
				mags[j] += noise.Rand()
			}
			mags[j] = math.Max(mags[j], 0)
		}

		id := fmt.Sprintf(p.Pattern, i+1)
		w, err := Clean(id, freqs, mags, 2)
		if err != nil {
			return nil, err
		}
		w.Source = "synthetic"
		w.FrequencyColumn = "freq"
		w.MagnitudeColumn = "value"
		windows = append(windows, w)
	}
	return windows, nil
}

// addPeaks adds a Lorentzian bump of the given height and half-width at
// every θ·r^k
func addPeaks(freqs, mags []float64, theta, ratio float64, kMin, kMax int, amp, width float64) {
	w2 := width * width
	for _, pk := range harmonic.Grid(theta, ratio, kMin, kMax) {
		for j, f := range freqs {
			d := f - pk
			mags[j] += amp * w2 / (d*d + w2)
		}
	}
}

// WriteSynthetic synthesizes the corpus and writes one freq,value CSV per
// window into dir. It returns the written paths.
func WriteSynthetic(dir string, p SynthParams) ([]string, error) {
	windows, err := Synthesize(p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spectra dir: %w", err)
	}

	paths := make([]string, 0, len(windows))
	for _, w := range windows {
		path := filepath.Join(dir, w.ID)
		if err := writeWindowCSV(path, w); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeWindowCSV(path string, w *Window) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{w.FrequencyColumn, w.MagnitudeColumn}); err != nil {
		return err
	}
	for i := range w.Frequencies {
		row := []string{
			strconv.FormatFloat(w.Frequencies[i], 'g', -1, 64),
			strconv.FormatFloat(w.Magnitudes[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
