package dominance

import (
	"time"

	"github.com/RyanBlaney/sonido-ratio/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-ratio/algorithms/stats"
)

// ComparisonStats aggregates the outcomes of one primary-vs-alternate
// comparison. Each family reports its own n.
type ComparisonStats struct {
	RatioPrimary harmonic.Ratio `json:"ratio_primary"`
	RatioAlt     harmonic.Ratio `json:"ratio_alt"`

	Windows  int `json:"windows"`  // outcomes seen, excluded ones included
	Excluded int `json:"excluded"` // degenerate calibrations

	NU    int `json:"n_u"`
	NWin  int `json:"n_win"`
	NPerm int `json:"n_perm"`

	U           stats.MeanCIResult      `json:"u"`
	TTest       stats.TTestResult       `json:"t_test"`
	WinRate     stats.WilsonResult      `json:"win_rate"`
	Permutation stats.PermutationResult `json:"permutation"`

	ThetaPrimary stats.ThetaDistribution `json:"theta_primary"`
	ThetaAlt     stats.ThetaDistribution `json:"theta_alt"`
}

// Summarize builds the corpus statistics over outcomes using their
// inclusion flags. An empty input yields n = 0 and undefined (NaN) values.
func Summarize(outcomes []WindowOutcome, permutations int, seed uint64) ComparisonStats {
	var (
		u, d                   []float64
		thetaPrimary, thetaAlt []float64
		wins, nWin, excluded   int
	)
	for _, o := range outcomes {
		if o.Excluded != ExcludedNone {
			excluded++
		}
		if o.InU {
			u = append(u, o.U)
		}
		if o.InD {
			d = append(d, o.D)
			thetaPrimary = append(thetaPrimary, o.ThetaPrimary)
			thetaAlt = append(thetaAlt, o.ThetaAlt)
		}
		if o.InWin {
			nWin++
			if o.Win {
				wins++
			}
		}
	}

	s := ComparisonStats{
		Windows:      len(outcomes),
		Excluded:     excluded,
		U:            stats.MeanCI(u),
		TTest:        stats.OneSidedTTest(u, 0),
		WinRate:      stats.Wilson(wins, nWin),
		Permutation:  stats.NewSignFlipTest(permutations, seed).Run(d),
		ThetaPrimary: stats.SummarizeThetas(thetaPrimary),
		ThetaAlt:     stats.SummarizeThetas(thetaAlt),
	}
	if len(outcomes) > 0 {
		s.RatioPrimary = outcomes[0].RatioPrimary
		s.RatioAlt = outcomes[0].RatioAlt
	}
	s.NU = s.U.N
	s.NWin = s.WinRate.N
	s.NPerm = s.Permutation.N

	return s
}

// Summary is the corpus-level record of one run
type Summary struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Windows int `json:"n_windows"` // windows that reached calibration
	Skipped int `json:"skipped"`   // inputs discarded at ingestion

	Params       harmonic.CalibrationParams `json:"params"`
	Permutations int                        `json:"permutations"`
	Seed         uint64                     `json:"seed"`

	Main  ComparisonStats  `json:"main"`
	Root2 *ComparisonStats `json:"sqrt2_comparison,omitempty"`
}
