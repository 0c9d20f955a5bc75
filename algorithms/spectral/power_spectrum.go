package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-ratio/algorithms/windowing"
)

// AveragedSpectrum is a one-sided magnitude spectrum averaged over frames
type AveragedSpectrum struct {
	Frequencies []float64 // bin centre frequencies in Hz, DC excluded
	Magnitudes  []float64 // mean |X| per bin
	Frames      int
	FrameSize   int
	SampleRate  int
}

// PowerSpectrum averages windowed FFT magnitudes over non-overlapping
// frames, the way a PSD export from an analyzer would
type PowerSpectrum struct {
	frameSize int
	fft       *FFT
	window    *windowing.Window
}

// NewPowerSpectrum creates a Hann-windowed averager for frames of frameSize
// samples
func NewPowerSpectrum(frameSize int) *PowerSpectrum {
	return &PowerSpectrum{
		frameSize: frameSize,
		fft:       NewFFT(),
		window:    windowing.NewHann(frameSize, false),
	}
}

// NewPowerSpectrumWithWindow creates an averager using the given taper
func NewPowerSpectrumWithWindow(frameSize int, kind windowing.Type) (*PowerSpectrum, error) {
	window, err := windowing.New(kind, frameSize, false)
	if err != nil {
		return nil, err
	}
	return &PowerSpectrum{
		frameSize: frameSize,
		fft:       NewFFT(),
		window:    window,
	}, nil
}

// Compute averages the magnitude spectrum of pcm. A signal shorter than one
// frame is analyzed as a single zero-padded frame.
func (ps *PowerSpectrum) Compute(pcm []float64, sampleRate int) (*AveragedSpectrum, error) {
	if ps.frameSize < 4 {
		return nil, fmt.Errorf("frame size must be at least 4, got %d", ps.frameSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	bins := ps.frameSize/2 + 1
	sum := make([]float64, bins)
	frame := make([]float64, ps.frameSize)

	frames := 0
	for start := 0; start < len(pcm); start += ps.frameSize {
		end := min(start+ps.frameSize, len(pcm))
		if frames > 0 && end-start < ps.frameSize {
			// drop the short tail once at least one full frame was seen
			break
		}

		clear(frame)
		copy(frame, pcm[start:end])
		if err := ps.window.ApplyInPlace(frame); err != nil {
			return nil, err
		}

		for i, m := range ps.fft.Magnitude(frame) {
			sum[i] += m
		}
		frames++
	}

	binWidth := float64(sampleRate) / float64(ps.frameSize)
	result := &AveragedSpectrum{
		Frequencies: make([]float64, bins-1),
		Magnitudes:  make([]float64, bins-1),
		Frames:      frames,
		FrameSize:   ps.frameSize,
		SampleRate:  sampleRate,
	}
	for i := 1; i < bins; i++ {
		result.Frequencies[i-1] = float64(i) * binWidth
		result.Magnitudes[i-1] = sum[i] / float64(frames)
	}

	return result, nil
}
