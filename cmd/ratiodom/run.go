package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ratio/dominance"
	"github.com/RyanBlaney/sonido-ratio/dominance/config"
	"github.com/RyanBlaney/sonido-ratio/logging"
	"github.com/RyanBlaney/sonido-ratio/report"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		calib        calibrationFlags
		spectraDir   string
		outputDir    string
		permutations int
		seed         uint64
		workers      int
		noSynth      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calibrate every window in a directory and write the corpus report",
		Long: `Load every spectrum (CSV, XLSX or audio) from the spectra directory, calibrate
the primary and alternate ratios on each window and write results.csv,
summary.json and report.xlsx into <output_dir>/ratiodom_<timestamp>.

If the directory holds no readable files, a synthetic corpus is generated
first unless --no-synth is given.

Example: ratiodom run --spectra ./spectra --alt root2 --permutations 10000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			calib.apply(cmd, &cfg)
			if cmd.Flags().Changed("spectra") {
				cfg.SpectraDir = spectraDir
			}
			if cmd.Flags().Changed("out") {
				cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("permutations") {
				cfg.PermutationCount = permutations
			}
			if cmd.Flags().Changed("seed") {
				cfg.RandomSeed = seed
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if noSynth {
				cfg.SynthesizeIfEmpty = false
			}

			return runCorpus(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	defaults := config.Default()
	calib.register(cmd)
	cmd.Flags().StringVar(&spectraDir, "spectra", defaults.SpectraDir, "Directory of input spectra")
	cmd.Flags().StringVar(&outputDir, "out", defaults.OutputDir, "Root directory for run outputs")
	cmd.Flags().IntVar(&permutations, "permutations", defaults.PermutationCount, "Sign-flip resamples")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.RandomSeed, "Random seed for the permutation test")
	cmd.Flags().IntVar(&workers, "workers", defaults.Workers, "Concurrent calibrations")
	cmd.Flags().BoolVar(&noSynth, "no-synth", false, "Do not generate synthetic spectra for an empty directory")

	return cmd
}

func runCorpus(ctx context.Context, cfg config.Config, out io.Writer) error {
	runner, err := dominance.NewRunner(cfg)
	if err != nil {
		return err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"command":   "run",
	})

	if cfg.SynthesizeIfEmpty {
		ok, err := spectrum.HasSupportedFiles(cfg.SpectraDir)
		if err != nil {
			return err
		}
		if !ok {
			paths, err := spectrum.WriteSynthetic(cfg.SpectraDir, spectrum.DefaultSynthParams())
			if err != nil {
				return fmt.Errorf("generate synthetic spectra: %w", err)
			}
			logger.Info("Spectra directory was empty, generated synthetic windows", logging.Fields{
				"dir":   cfg.SpectraDir,
				"files": len(paths),
			})
		}
	}

	loader := spectrum.NewLoader(cfg.LoadOptions())
	windows, failures, err := loader.LoadDir(ctx, cfg.SpectraDir)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		logger.Warn("No valid windows, the summary will be empty", logging.Fields{
			"dir":     cfg.SpectraDir,
			"skipped": len(failures),
		})
	}

	result, err := runner.Run(ctx, windows)
	if err != nil {
		return err
	}
	result.Summary.Skipped = len(failures)

	writer, err := report.NewWriter(report.RunDir(cfg.OutputDir, time.Now()))
	if err != nil {
		return err
	}
	if _, err := writer.WriteAll(result); err != nil {
		return err
	}

	printSummary(out, result.Summary, writer.Dir())
	return nil
}

func printSummary(out io.Writer, s dominance.Summary, dir string) {
	fmt.Fprintf(out, "run %s: %d windows (%d skipped at load)\n", s.RunID, s.Windows, s.Skipped)
	printComparison(out, s.Main)
	if s.Root2 != nil {
		printComparison(out, *s.Root2)
	}
	fmt.Fprintf(out, "outputs: %s\n", dir)
}

func printComparison(out io.Writer, c dominance.ComparisonStats) {
	fmt.Fprintf(out, "\n%s vs %s (excluded %d)\n", c.RatioPrimary, c.RatioAlt, c.Excluded)
	fmt.Fprintf(out, "  mean U      %.6g  [%.6g, %.6g]  n=%d\n", c.U.Mean, c.U.Lo, c.U.Hi, c.NU)
	fmt.Fprintf(out, "  t           %.6g  p=%.4g  (student p=%.4g)\n", c.TTest.T, c.TTest.PValue, c.TTest.PValueStudent)
	fmt.Fprintf(out, "  wins        %d/%d  %.4g  [%.4g, %.4g]\n", c.WinRate.Wins, c.NWin, c.WinRate.PHat, c.WinRate.Lo, c.WinRate.Hi)
	fmt.Fprintf(out, "  permutation p=%.4g  mean D=%.6g  n=%d\n", c.Permutation.PValue, c.Permutation.Observed, c.NPerm)
}
