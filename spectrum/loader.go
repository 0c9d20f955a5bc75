package spectrum

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RyanBlaney/sonido-ratio/algorithms/filters"
	"github.com/RyanBlaney/sonido-ratio/algorithms/spectral"
	"github.com/RyanBlaney/sonido-ratio/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ratio/logging"
	"github.com/RyanBlaney/sonido-ratio/transcode"
)

// LoadOptions configures how files become windows
type LoadOptions struct {
	Columns    ColumnOptions
	MinSamples int
	FrameSize  int // FFT frame for audio inputs
	Window     windowing.Type
	DCCutoffHz float64 // 0 disables the DC blocker
	Decoder    *transcode.DecoderConfig
}

// DefaultLoadOptions returns auto-detected columns, 10 samples minimum and
// 8192-sample audio frames
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MinSamples: DefaultMinSamples,
		FrameSize:  8192,
		Window:     windowing.Hann,
		DCCutoffHz: 5,
		Decoder:    transcode.DefaultDecoderConfig(),
	}
}

// LoadFailure records a file that could not become a usable window
type LoadFailure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (f LoadFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

var audioExtensions = map[string]bool{
	".wav": true, ".flac": true, ".mp3": true, ".ogg": true, ".m4a": true, ".aac": true,
}

var tableExtensions = map[string]bool{
	".csv": true, ".txt": true, ".xlsx": true,
}

// IsSupported reports whether the loader knows how to read path
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return audioExtensions[ext] || tableExtensions[ext]
}

// Loader reads spectral windows from tables (CSV, XLSX) or audio files
type Loader struct {
	opts    LoadOptions
	decoder *transcode.Decoder
	logger  logging.Logger
}

// NewLoader creates a loader
func NewLoader(opts LoadOptions) *Loader {
	if opts.MinSamples < 1 {
		opts.MinSamples = DefaultMinSamples
	}
	if opts.FrameSize <= 0 {
		opts.FrameSize = DefaultLoadOptions().FrameSize
	}
	return &Loader{
		opts:    opts,
		decoder: transcode.NewDecoder(opts.Decoder),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrum_loader",
		}),
	}
}

// ReadCSV parses a delimited table with a header row
func (l *Loader) ReadCSV(id string, r io.Reader) (*Window, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("window %s: read csv: %w", id, err)
	}
	return FromTable(id, table, l.opts.Columns, l.opts.MinSamples)
}

// ReadXLSX parses the first sheet of a workbook
func (l *Loader) ReadXLSX(id, path string) (*Window, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("window %s: open workbook: %w", id, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("window %s: %w", id, ErrEmptyInput)
	}

	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("window %s: read sheet %s: %w", id, sheets[0], err)
	}
	return FromTable(id, table, l.opts.Columns, l.opts.MinSamples)
}

// ReadAudio decodes an audio file and averages its magnitude spectrum
func (l *Loader) ReadAudio(ctx context.Context, id, path string) (*Window, error) {
	audio, err := l.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", id, err)
	}
	return l.FromPCM(id, audio.PCM, audio.SampleRate)
}

// FromPCM turns mono samples into a window: optional DC blocking, then the
// windowed FFT magnitude averaged over frames
func (l *Loader) FromPCM(id string, pcm []float64, sampleRate int) (*Window, error) {
	if l.opts.DCCutoffHz > 0 {
		dc, err := filters.NewDCRemovalWithCutoff(sampleRate, l.opts.DCCutoffHz)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", id, err)
		}
		pcm = dc.ProcessBuffer(pcm)
		l.logger.Debug("DC blocker applied", logging.Fields{
			"window":    id,
			"cutoff_hz": dc.CutoffFrequency(sampleRate),
		})
	}

	kind := l.opts.Window
	if kind == "" {
		kind = windowing.Hann
	}
	ps, err := spectral.NewPowerSpectrumWithWindow(l.opts.FrameSize, kind)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", id, err)
	}

	spec, err := ps.Compute(pcm, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", id, err)
	}

	w, err := Clean(id, spec.Frequencies, spec.Magnitudes, l.opts.MinSamples)
	if err != nil {
		return nil, err
	}
	w.FrequencyColumn = "hz"
	w.MagnitudeColumn = "mag"
	return w, nil
}

// LoadFile reads one file according to its extension. The window ID is the
// file's base name.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Window, error) {
	id := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	var (
		w   *Window
		err error
	)
	switch {
	case ext == ".xlsx":
		w, err = l.ReadXLSX(id, path)
	case tableExtensions[ext]:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", id, err)
		}
		defer f.Close()
		w, err = l.ReadCSV(id, f)
	case audioExtensions[ext]:
		w, err = l.ReadAudio(ctx, id, path)
	default:
		return nil, fmt.Errorf("window %s: unsupported file type %q", id, ext)
	}
	if err != nil {
		return nil, err
	}

	w.Source = path
	return w, nil
}

// LoadDir reads every supported file in dir in name order. A file that
// cannot be read or cleaned is reported as a LoadFailure and skipped; only an
// unreadable directory or a cancelled context is an error.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Window, []LoadFailure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read spectra dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var (
		windows  []*Window
		failures []LoadFailure
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		w, err := l.LoadFile(ctx, path)
		if err != nil {
			l.logger.Warn("Skipping window", logging.Fields{
				"path":   path,
				"reason": "malformed_window",
				"error":  err.Error(),
			})
			failures = append(failures, LoadFailure{Path: path, Err: err})
			continue
		}

		l.logger.Debug("Loaded window", logging.Fields{
			"window":  w.ID,
			"samples": w.Len(),
			"dropped": w.Dropped,
			"columns": w.FrequencyColumn + "," + w.MagnitudeColumn,
		})
		windows = append(windows, w)
	}

	l.logger.Info("Loaded spectra", logging.Fields{
		"dir":     dir,
		"windows": len(windows),
		"skipped": len(failures),
	})

	return windows, failures, nil
}

// HasSupportedFiles reports whether dir contains at least one readable input
func HasSupportedFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, e := range entries {
		if !e.IsDir() && IsSupported(e.Name()) {
			return true, nil
		}
	}
	return false, nil
}
