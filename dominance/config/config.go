package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/algorithms/windowing"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
	"github.com/RyanBlaney/sonido-ratio/transcode"
)

// ErrInvalidConfig marks configuration that must abort a run
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override
const EnvPrefix = "RATIODOM_"

// Config is the immutable run configuration. Build it with Default, Load or
// by hand, call Validate, then pass it by value.
type Config struct {
	// Calibration
	KMin   int `json:"k_min" yaml:"k_min"`
	KMax   int `json:"k_max" yaml:"k_max"`
	NTheta int `json:"n_theta" yaml:"n_theta"`

	// Ratios under comparison
	RatioPrimary        harmonic.Ratio `json:"ratio_primary" yaml:"ratio_primary"`
	RatioAlt            harmonic.Ratio `json:"ratio_alt" yaml:"ratio_alt"`
	CompareAgainstRoot2 bool           `json:"compare_against_root2" yaml:"compare_against_root2"`

	// Statistics
	PermutationCount int    `json:"permutation_count" yaml:"permutation_count"`
	RandomSeed       uint64 `json:"random_seed" yaml:"random_seed"`

	// Ingestion
	MinSamples        int                    `json:"min_samples" yaml:"min_samples"`
	SpectraDir        string                 `json:"spectra_dir" yaml:"spectra_dir"`
	SynthesizeIfEmpty bool                   `json:"synthesize_if_empty" yaml:"synthesize_if_empty"`
	Columns           spectrum.ColumnOptions `json:"columns" yaml:"columns"`
	Audio             AudioConfig            `json:"audio" yaml:"audio"`

	Workers   int    `json:"workers" yaml:"workers"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// AudioConfig controls how audio files are turned into spectra
type AudioConfig struct {
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	FrameSize  int     `json:"frame_size" yaml:"frame_size"`
	Window     string  `json:"window" yaml:"window"`             // rectangular, hann, hamming, blackman, blackman_harris
	DCCutoffHz float64 `json:"dc_cutoff_hz" yaml:"dc_cutoff_hz"` // 0 disables the DC blocker
	FFmpegPath string  `json:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// Default returns the stock configuration: 3/2 against the golden ratio,
// k in [-8, 8], 200 θ candidates, 5000 sign flips seeded with 123.
func Default() Config {
	return Config{
		KMin:                -8,
		KMax:                8,
		NTheta:              200,
		RatioPrimary:        harmonic.Named(harmonic.ThreeHalves),
		RatioAlt:            harmonic.Named(harmonic.Golden),
		CompareAgainstRoot2: true,
		PermutationCount:    5000,
		RandomSeed:          123,
		MinSamples:          spectrum.DefaultMinSamples,
		SpectraDir:          "./spectra",
		SynthesizeIfEmpty:   true,
		Audio: AudioConfig{
			SampleRate: 44100,
			FrameSize:  8192,
			Window:     string(windowing.Hann),
			DCCutoffHz: 5,
			FFmpegPath: "ffmpeg",
		},
		Workers:   runtime.NumCPU(),
		OutputDir: "./out",
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv loads the given .env files (a missing file is skipped) and then
// applies RATIODOM_* variables. Variables already set in the process
// environment take precedence over .env entries.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	ints := map[string]*int{
		"K_MIN":             &c.KMin,
		"K_MAX":             &c.KMax,
		"N_THETA":           &c.NTheta,
		"PERMUTATION_COUNT": &c.PermutationCount,
		"MIN_SAMPLES":       &c.MinSamples,
		"WORKERS":           &c.Workers,
		"SAMPLE_RATE":       &c.Audio.SampleRate,
		"FRAME_SIZE":        &c.Audio.FrameSize,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, EnvPrefix, key, v)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"COMPARE_AGAINST_ROOT2": &c.CompareAgainstRoot2,
		"SYNTHESIZE_IF_EMPTY":   &c.SynthesizeIfEmpty,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidConfig, EnvPrefix, key, v)
			}
			*dst = b
		}
	}

	ratios := map[string]*harmonic.Ratio{
		"RATIO_PRIMARY": &c.RatioPrimary,
		"RATIO_ALT":     &c.RatioAlt,
	}
	for key, dst := range ratios {
		if v, ok := lookup(key); ok {
			r, err := harmonic.ParseRatio(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
			}
			*dst = r
		}
	}

	if v, ok := lookup("DC_CUTOFF_HZ"); ok {
		hz, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sDC_CUTOFF_HZ=%q is not a number", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Audio.DCCutoffHz = hz
	}

	if v, ok := lookup("RANDOM_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sRANDOM_SEED=%q is not an unsigned integer", ErrInvalidConfig, EnvPrefix, v)
		}
		c.RandomSeed = seed
	}

	strs := map[string]*string{
		"SPECTRA_DIR":      &c.SpectraDir,
		"OUTPUT_DIR":       &c.OutputDir,
		"FFMPEG_PATH":      &c.Audio.FFmpegPath,
		"WINDOW":           &c.Audio.Window,
		"FREQUENCY_COLUMN": &c.Columns.FrequencyColumn,
		"MAGNITUDE_COLUMN": &c.Columns.MagnitudeColumn,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Validate rejects configurations that indicate caller misuse
func (c Config) Validate() error {
	if err := c.CalibrationParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.RatioPrimary.Validate(); err != nil {
		return fmt.Errorf("%w: ratio_primary: %v", ErrInvalidConfig, err)
	}
	if err := c.RatioAlt.Validate(); err != nil {
		return fmt.Errorf("%w: ratio_alt: %v", ErrInvalidConfig, err)
	}
	if c.PermutationCount < 1 {
		return fmt.Errorf("%w: permutation_count must be >= 1, got %d", ErrInvalidConfig, c.PermutationCount)
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("%w: min_samples must be >= 2, got %d", ErrInvalidConfig, c.MinSamples)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.FrameSize < 4 {
		return fmt.Errorf("%w: audio needs a positive sample_rate and frame_size >= 4", ErrInvalidConfig)
	}
	if _, err := windowing.ParseType(c.Audio.Window); err != nil {
		return fmt.Errorf("%w: audio: %v", ErrInvalidConfig, err)
	}
	if c.Audio.DCCutoffHz < 0 || math.IsNaN(c.Audio.DCCutoffHz) {
		return fmt.Errorf("%w: audio dc_cutoff_hz must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// CalibrationParams extracts the calibrator settings
func (c Config) CalibrationParams() harmonic.CalibrationParams {
	return harmonic.CalibrationParams{
		KMin:   c.KMin,
		KMax:   c.KMax,
		NTheta: c.NTheta,
	}
}

// Root2Enabled reports whether the extra √2 comparison runs: requested and
// the alternate ratio is not already √2
func (c Config) Root2Enabled() bool {
	return c.CompareAgainstRoot2 && !c.RatioAlt.Is(harmonic.Named(harmonic.Root2))
}

// LoadOptions builds the spectrum loader settings
func (c Config) LoadOptions() spectrum.LoadOptions {
	decoder := transcode.DefaultDecoderConfig()
	decoder.TargetSampleRate = c.Audio.SampleRate
	decoder.FFmpegPath = c.Audio.FFmpegPath

	// Validate has already rejected unknown names
	window, _ := windowing.ParseType(c.Audio.Window)

	return spectrum.LoadOptions{
		Columns:    c.Columns,
		MinSamples: c.MinSamples,
		FrameSize:  c.Audio.FrameSize,
		Window:     window,
		DCCutoffHz: c.Audio.DCCutoffHz,
		Decoder:    decoder,
	}
}
