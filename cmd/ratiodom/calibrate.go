package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/dominance"
	"github.com/RyanBlaney/sonido-ratio/spectrum"
)

func newCalibrateCmd(flags *globalFlags) *cobra.Command {
	var calib calibrationFlags

	cmd := &cobra.Command{
		Use:   "calibrate [file]",
		Short: "Calibrate the configured ratios on a single spectrum",
		Long: `Print the best θ and captured power of each ratio for one file, plus the
per-window comparison of primary against alternate.

Example: ratiodom calibrate ./spectra/window_01.csv --kmin -4 --kmax 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			calib.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			window, err := spectrum.NewLoader(cfg.LoadOptions()).LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			comparator, err := dominance.NewComparator(cfg.CalibrationParams(), cfg.RatioPrimary, cfg.RatioAlt)
			if err != nil {
				return err
			}

			ratios := []harmonic.Ratio{cfg.RatioPrimary, cfg.RatioAlt}
			if cfg.Root2Enabled() {
				ratios = append(ratios, harmonic.Named(harmonic.Root2))
			}

			out := cmd.OutOrStdout()
			lo, hi := window.Band()
			fmt.Fprintf(out, "%s: %d samples over [%g, %g] (%s, %s), %d dropped\n",
				window.ID, window.Len(), lo, hi, window.FrequencyColumn, window.MagnitudeColumn, window.Dropped)

			results := make([]harmonic.CalibrationResult, len(ratios))
			for i, r := range ratios {
				res := comparator.Calibrate(window, r)
				results[i] = res
				fmt.Fprintf(out, "  %-24s θ*=%-12.6g P*=%-12.6g grid=[%.4g, %.4g] fallback=%t\n",
					r, res.BestTheta, res.CapturedPower, res.ThetaMin, res.ThetaMax, res.Fallback)
			}

			o := comparator.Outcome(window, results[0], results[1])
			fmt.Fprintf(out, "  U=%.6g D=%.6g win=%t", o.U, o.D, o.Win)
			if o.Excluded != dominance.ExcludedNone {
				fmt.Fprintf(out, " excluded=%s", o.Excluded)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	calib.register(cmd)
	return cmd
}
