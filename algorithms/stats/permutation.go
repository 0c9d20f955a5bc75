package stats

import (
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/sonido-ratio/algorithms/common"
)

// permutationStream separates the sign-flip stream from other consumers of
// the same seed
const permutationStream = 0x5349474e464c4950

// PermutationResult is the outcome of a sign-flip permutation test
type PermutationResult struct {
	N           int     `json:"n"`
	Observed    float64 `json:"observed_mean"`
	PValue      float64 `json:"p_value"` // NaN when N == 0 or Resamples < 1
	Resamples   int     `json:"resamples"`
	Seed        uint64  `json:"seed"`
	NullAtLeast int     `json:"null_at_least"` // resampled means >= Observed
}

// SignFlipTest is a one-sided permutation test of H1: mean(d) > 0 for paired
// differences d. The null hypothesis is that the sign of each difference is
// random; each resample multiplies every d_i by an independent ±1 and the
// p-value is the fraction of resampled means that reach the observed mean.
type SignFlipTest struct {
	resamples int
	seed      uint64
}

// NewSignFlipTest creates a test drawing resamples sign vectors from a PCG
// generator seeded with seed
func NewSignFlipTest(resamples int, seed uint64) *SignFlipTest {
	return &SignFlipTest{
		resamples: resamples,
		seed:      seed,
	}
}

// Run performs the test over the finite values of diffs. The same seed and
// input always produce the same p-value.
func (s *SignFlipTest) Run(diffs []float64) PermutationResult {
	values := common.FiniteValues(diffs)
	n := len(values)

	result := PermutationResult{
		N:         n,
		Observed:  math.NaN(),
		PValue:    math.NaN(),
		Resamples: s.resamples,
		Seed:      s.seed,
	}
	if n == 0 {
		return result
	}

	result.Observed = signedMean(values, nil)
	if s.resamples < 1 {
		return result
	}

	rng := rand.New(rand.NewPCG(s.seed, permutationStream))
	signs := make([]float64, n)

	for range s.resamples {
		for i := range signs {
			if rng.IntN(2) == 0 {
				signs[i] = -1
			} else {
				signs[i] = 1
			}
		}
		if signedMean(values, signs) >= result.Observed {
			result.NullAtLeast++
		}
	}

	result.PValue = float64(result.NullAtLeast) / float64(s.resamples)
	return result
}

// signedMean computes mean(signs[i]·x[i]); nil signs means all +1.
// Observed and resampled means share this summation order so the all-plus
// resample reproduces the observed mean exactly.
func signedMean(x, signs []float64) float64 {
	sum := 0.0
	for i, v := range x {
		if signs != nil {
			v *= signs[i]
		}
		sum += v
	}
	return sum / float64(len(x))
}
