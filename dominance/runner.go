package dominance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/dominance/config"
	"github.com/RyanBlaney/sonido-ratio/logging"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
)

// Result is everything a run produces: per-window outcomes in window ID
// order and the corpus summary
type Result struct {
	Summary       Summary         `json:"summary"`
	Outcomes      []WindowOutcome `json:"outcomes"`
	Root2Outcomes []WindowOutcome `json:"sqrt2_outcomes,omitempty"`
}

// Runner calibrates a corpus of windows in parallel and aggregates the
// outcomes
type Runner struct {
	cfg        config.Config
	comparator *Comparator
	root2      *harmonic.Ratio
	logger     logging.Logger
}

// NewRunner validates cfg and prepares the comparators
func NewRunner(cfg config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comparator, err := NewComparator(cfg.CalibrationParams(), cfg.RatioPrimary, cfg.RatioAlt)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:        cfg,
		comparator: comparator,
		logger: logging.WithFields(logging.Fields{
			"component": "dominance_runner",
		}),
	}
	if cfg.Root2Enabled() {
		root2 := harmonic.Named(harmonic.Root2)
		r.root2 = &root2
	}
	return r, nil
}

// Config returns the run configuration
func (r *Runner) Config() config.Config {
	return r.cfg
}

type windowTask struct {
	outcome WindowOutcome
	root2   WindowOutcome
}

// Run calibrates every window with at most cfg.Workers concurrent tasks.
// Results are merged in window ID order, so the summary does not depend on
// scheduling. Cancelling ctx aborts the run with ctx.Err().
func (r *Runner) Run(ctx context.Context, windows []*spectrum.Window) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": runID})

	logger := r.logger.WithContext(ctx).WithFields(logging.Fields{
		"windows": len(windows),
		"primary": r.cfg.RatioPrimary.String(),
		"alt":     r.cfg.RatioAlt.String(),
	})
	logger.Info("Starting calibration run")

	tasks := make([]windowTask, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, w := range windows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			primary := r.comparator.Calibrate(w, r.comparator.Primary())
			alt := r.comparator.Calibrate(w, r.comparator.Alt())
			tasks[i].outcome = r.comparator.Outcome(w, primary, alt)

			if r.root2 != nil {
				sqrt2 := r.comparator.Calibrate(w, *r.root2)
				tasks[i].root2 = NewOutcome(w, primary, sqrt2)
			}

			logger.Debug("Window calibrated", logging.Fields{
				"window":        w.ID,
				"power_primary": primary.CapturedPower,
				"power_alt":     alt.CapturedPower,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(a, b int) bool {
		return tasks[a].outcome.WindowID < tasks[b].outcome.WindowID
	})

	result := &Result{
		Outcomes: make([]WindowOutcome, len(tasks)),
	}
	for i, t := range tasks {
		result.Outcomes[i] = t.outcome
	}

	result.Summary = Summary{
		RunID:        runID,
		CreatedAt:    start.UTC(),
		Windows:      len(windows),
		Params:       r.cfg.CalibrationParams(),
		Permutations: r.cfg.PermutationCount,
		Seed:         r.cfg.RandomSeed,
		Main:         Summarize(result.Outcomes, r.cfg.PermutationCount, r.cfg.RandomSeed),
	}
	// stats carry the configured ratios even when there are no outcomes
	result.Summary.Main.RatioPrimary = r.cfg.RatioPrimary
	result.Summary.Main.RatioAlt = r.cfg.RatioAlt

	if r.root2 != nil {
		result.Root2Outcomes = make([]WindowOutcome, len(tasks))
		for i, t := range tasks {
			result.Root2Outcomes[i] = t.root2
		}
		root2Stats := Summarize(result.Root2Outcomes, r.cfg.PermutationCount, r.cfg.RandomSeed)
		root2Stats.RatioPrimary = r.cfg.RatioPrimary
		root2Stats.RatioAlt = *r.root2
		result.Summary.Root2 = &root2Stats
	}

	mainStats := result.Summary.Main
	logger.Info("Calibration run completed", logging.Fields{
		"n_u":      mainStats.NU,
		"n_win":    mainStats.NWin,
		"excluded": mainStats.Excluded,
		"mean_u":   mainStats.U.Mean,
		"win_rate": mainStats.WinRate.PHat,
		"p_perm":   mainStats.Permutation.PValue,
		"elapsed":  time.Since(start).Seconds(),
	})

	return result, nil
}
