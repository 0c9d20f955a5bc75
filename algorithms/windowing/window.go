package windowing

import (
	"fmt"
	"math"
	"strings"
)

// Type names a taper
type Type string

const (
	Rectangular    Type = "rectangular"
	Hann           Type = "hann"
	Hamming        Type = "hamming"
	Blackman       Type = "blackman"
	BlackmanHarris Type = "blackman_harris"
)

// cosine-sum terms a0 - a1·cos(x) + a2·cos(2x) - a3·cos(3x)
var cosineTerms = map[Type][4]float64{
	Rectangular:    {1, 0, 0, 0},
	Hann:           {0.5, 0.5, 0, 0},
	Hamming:        {0.54, 0.46, 0, 0},
	Blackman:       {0.42, 0.5, 0.08, 0},
	BlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
}

// ParseType maps a case-insensitive name to a Type; empty means Hann
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if t == "" {
		return Hann, nil
	}
	if _, ok := cosineTerms[t]; !ok {
		return "", fmt.Errorf("unknown window type %q", name)
	}
	return t, nil
}

// Window is a precomputed cosine-sum taper
type Window struct {
	kind         Type
	size         int
	symmetric    bool
	coefficients []float64
}

// New creates a window of the given type. Periodic (symmetric=false)
// windows are the right choice for spectral analysis frames.
func New(kind Type, size int, symmetric bool) (*Window, error) {
	terms, ok := cosineTerms[kind]
	if !ok {
		return nil, fmt.Errorf("unknown window type %q", kind)
	}

	w := &Window{
		kind:      kind,
		size:      max(size, 0),
		symmetric: symmetric,
	}
	w.generate(terms)
	return w, nil
}

// NewHann creates a Hann window
func NewHann(size int, symmetric bool) *Window {
	w, _ := New(Hann, size, symmetric)
	return w
}

func (w *Window) generate(a [4]float64) {
	w.coefficients = make([]float64, w.size)
	if w.size == 1 {
		w.coefficients[0] = 1
		return
	}

	denominator := float64(w.size)
	if w.symmetric {
		denominator = float64(w.size - 1)
	}

	for i := range w.size {
		x := 2 * math.Pi * float64(i) / denominator
		w.coefficients[i] = a[0] - a[1]*math.Cos(x) + a[2]*math.Cos(2*x) - a[3]*math.Cos(3*x)
	}
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	for i := range w.size {
		signal[i] *= w.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Size returns the window size
func (w *Window) Size() int {
	return w.size
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}
