package spectrum

import (
	"errors"
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
)

// DefaultMinSamples is the smallest number of valid samples a window needs
const DefaultMinSamples = 10

var (
	// ErrTooFewSamples marks a window with fewer valid samples than required
	ErrTooFewSamples = errors.New("too few valid samples")
	// ErrEmptyInput marks an input without any data rows
	ErrEmptyInput = errors.New("empty input")
	// ErrNoColumns marks a table where no frequency/magnitude pair could be found
	ErrNoColumns = errors.New("could not detect frequency and magnitude columns")
)

// Window is one spectral sample: frequencies sorted ascending with matching
// magnitudes. A Window returned by Clean is never mutated afterwards.
type Window struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Frequencies     []float64 `json:"frequencies"`
	Magnitudes      []float64 `json:"magnitudes"`
	FrequencyColumn string    `json:"frequency_column,omitempty"`
	MagnitudeColumn string    `json:"magnitude_column,omitempty"`
	Dropped         int       `json:"dropped"` // rows removed during cleaning
}

// Len returns the number of samples
func (w *Window) Len() int {
	return len(w.Frequencies)
}

// Band returns the lowest and highest observed frequency
func (w *Window) Band() (float64, float64) {
	if len(w.Frequencies) == 0 {
		return 0, 0
	}
	return w.Frequencies[0], w.Frequencies[len(w.Frequencies)-1]
}

// Clean keeps the valid (frequency, magnitude) pairs and orders them by
// frequency. A pair is valid when both values are finite, the frequency is
// positive and the magnitude is non-negative. Equal frequencies keep their
// input order.
func Clean(id string, frequencies, magnitudes []float64, minSamples int) (*Window, error) {
	if len(frequencies) != len(magnitudes) {
		return nil, fmt.Errorf("window %s: %d frequencies but %d magnitudes", id, len(frequencies), len(magnitudes))
	}
	if minSamples < 1 {
		minSamples = DefaultMinSamples
	}

	idx := make([]int, 0, len(frequencies))
	for i := range frequencies {
		f, m := frequencies[i], magnitudes[i]
		if !common.IsFinite(f) || !common.IsFinite(m) || f <= 0 || m < 0 {
			continue
		}
		idx = append(idx, i)
	}

	if len(idx) < minSamples {
		return nil, fmt.Errorf("window %s: %w (%d valid of %d, need %d)",
			id, ErrTooFewSamples, len(idx), len(frequencies), minSamples)
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return frequencies[idx[a]] < frequencies[idx[b]]
	})

	w := &Window{
		ID:          id,
		Frequencies: make([]float64, len(idx)),
		Magnitudes:  make([]float64, len(idx)),
		Dropped:     len(frequencies) - len(idx),
	}
	for i, j := range idx {
		w.Frequencies[i] = frequencies[j]
		w.Magnitudes[i] = magnitudes[j]
	}

	return w, nil
}
