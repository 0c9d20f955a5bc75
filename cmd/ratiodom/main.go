package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/dominance/config"
	"github.com/RyanBlaney/sonido-ratio/logging"
)

type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	noColor    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ratiodom",
		Short: "Calibrate harmonic ratio families against spectra and compare them",
		Long: `ratiodom scores how well the harmonic family θ·r^k of a primary ratio
explains a corpus of spectra compared with an alternate ratio.

Each window is calibrated by scanning θ over a log-spaced grid; the captured
power of both ratios is compared per window and summarized across the corpus
(mean relative advantage with 95% CI, one-sided t-test, Wilson win rate and a
sign-flip permutation test).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			logging.SetLevel(level)
			if flags.noColor {
				logging.DisableColors()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file with RATIODOM_* overrides")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable coloured log output")

	rootCmd.AddCommand(
		newRunCmd(flags),
		newSynthCmd(),
		newCalibrateCmd(flags),
	)

	return rootCmd
}

// ratioFlag lets cobra parse ratios through the shared keyword table
type ratioFlag struct {
	ratio *harmonic.Ratio
}

func (f ratioFlag) String() string {
	if f.ratio == nil {
		return ""
	}
	text, _ := f.ratio.MarshalText()
	return string(text)
}

func (f ratioFlag) Set(s string) error {
	return f.ratio.UnmarshalText([]byte(s))
}

func (f ratioFlag) Type() string {
	return "ratio"
}

// calibrationFlags are shared by run and calibrate; they override the file
// and environment configuration only when set
type calibrationFlags struct {
	kMin, kMax, nTheta int
	primary, alt       harmonic.Ratio
	noRoot2            bool
}

func (c *calibrationFlags) register(cmd *cobra.Command) {
	defaults := config.Default()
	c.primary = defaults.RatioPrimary
	c.alt = defaults.RatioAlt

	cmd.Flags().IntVar(&c.kMin, "kmin", defaults.KMin, "Lowest harmonic order")
	cmd.Flags().IntVar(&c.kMax, "kmax", defaults.KMax, "Highest harmonic order")
	cmd.Flags().IntVar(&c.nTheta, "n-theta", defaults.NTheta, "Number of θ candidates")
	cmd.Flags().Var(ratioFlag{&c.primary}, "primary", "Primary ratio (1.5, golden, root2 or a number)")
	cmd.Flags().Var(ratioFlag{&c.alt}, "alt", "Alternate ratio (golden, root2 or a number)")
	cmd.Flags().BoolVar(&c.noRoot2, "no-root2", false, "Skip the extra comparison against √2")
}

func (c *calibrationFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("kmin") {
		cfg.KMin = c.kMin
	}
	if cmd.Flags().Changed("kmax") {
		cfg.KMax = c.kMax
	}
	if cmd.Flags().Changed("n-theta") {
		cfg.NTheta = c.nTheta
	}
	if cmd.Flags().Changed("primary") {
		cfg.RatioPrimary = c.primary
	}
	if cmd.Flags().Changed("alt") {
		cfg.RatioAlt = c.alt
	}
	if c.noRoot2 {
		cfg.CompareAgainstRoot2 = false
	}
}

// loadConfig layers defaults, the YAML file and the environment
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(flags.envFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}
