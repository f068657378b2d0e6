// Package simulate draws Monte-Carlo scenarios of portfolio returns
// from an expected-return vector and covariance matrix (spec.md §4.4,
// C4). It is the float64 side of the decimal/float split described in
// spec.md §9 — nothing here touches money.Value.
package simulate

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fintual/rebalancer/internal/model"
)

// Distribution selects the per-period return shock distribution.
type Distribution string

const (
	Normal    Distribution = "normal"
	StudentT  Distribution = "student-t"
)

// MinScenarios is the floor from spec.md §4.4; fewer fails with
// InsufficientScenarios.
const MinScenarios = 32

// Config configures one simulation run.
type Config struct {
	Periods          int          // T, default 252
	Scenarios        int          // N, default 1000
	Distribution     Distribution // default Normal
	DegreesOfFreedom float64      // ν for StudentT, default 5
	Seed             uint64
	Workers          int // fixed-size worker pool, default 8
}

// DefaultConfig returns spec.md §4.4's stated defaults.
func DefaultConfig() Config {
	return Config{
		Periods:          252,
		Scenarios:        1000,
		Distribution:     Normal,
		DegreesOfFreedom: 5,
		Workers:          8,
	}
}

func (c Config) withDefaults() Config {
	if c.Periods <= 0 {
		c.Periods = 252
	}
	if c.Scenarios <= 0 {
		c.Scenarios = 1000
	}
	if c.Distribution == "" {
		c.Distribution = Normal
	}
	if c.DegreesOfFreedom <= 0 {
		c.DegreesOfFreedom = 5
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

// Diagnostics reports details of how a Run executed, for the caller's
// metrics map.
type Diagnostics struct {
	JitterApplied float64 // ε·I added to Σ to force positive-definiteness, 0 if none was needed
}

// Simulator produces distributions of portfolio returns via
// Monte-Carlo sampling over per-period asset-return draws.
type Simulator struct{}

// New constructs a Simulator. It holds no state: every Run call is a
// pure function of its arguments (spec.md §5).
func New() *Simulator { return &Simulator{} }

// Run draws cfg.Scenarios independent T-period cumulative portfolio
// returns for weight vector w under (mu, sigma), both length n and
// n×n respectively, in the ticker ordering the caller fixed. Given
// the same seed, inputs, and N, Run is byte-for-byte deterministic
// (spec.md §4.4).
func (s *Simulator) Run(w, mu []float64, sigma [][]float64, cfg Config) ([]float64, Diagnostics, error) {
	cfg = cfg.withDefaults()
	n := len(w)
	if cfg.Scenarios < MinScenarios {
		return nil, Diagnostics{}, model.NewError(model.KindInsufficientScenarios,
			"requested %d scenarios, minimum is %d", cfg.Scenarios, MinScenarios)
	}
	if len(mu) != n || len(sigma) != n {
		return nil, Diagnostics{}, model.NewError(model.KindInvalidCovariance,
			"dimension mismatch: weights=%d mu=%d sigma=%d", n, len(mu), len(sigma))
	}

	chol, jitter, err := factorize(sigma)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	diag := Diagnostics{JitterApplied: jitter}

	periodMu := make([]float64, n)
	for i, m := range mu {
		periodMu[i] = m / float64(cfg.Periods)
	}
	// Σ/T has Cholesky factor L/√T since Cholesky scales linearly
	// with the matrix under positive scalar multiplication.
	var full mat.SymDense
	chol.ToSym(&full)
	var cholPeriod mat.Cholesky
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, full.At(i, j)/float64(cfg.Periods))
		}
	}
	if ok := cholPeriod.Factorize(scaled); !ok {
		return nil, Diagnostics{}, model.NewError(model.KindInvalidCovariance, "period covariance not positive-definite after jitter")
	}
	var lower mat.TriDense
	cholPeriod.LTo(&lower)

	out := make([]float64, cfg.Scenarios)
	indices := make(chan int, cfg.Scenarios)
	for i := 0; i < cfg.Scenarios; i++ {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	for wk := 0; wk < cfg.Workers; wk++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				out[idx] = s.scenario(idx, w, periodMu, &lower, cfg)
			}
		}()
	}
	wg.Wait()

	return out, diag, nil
}

// scenario draws one T-period cumulative portfolio return. The RNG
// seed is derived solely from (cfg.Seed, idx), so the result at index
// idx is identical regardless of which worker computes it or how work
// is interleaved (spec.md §5).
func (s *Simulator) scenario(idx int, w, periodMu []float64, lower *mat.TriDense, cfg Config) float64 {
	rng := rand.New(rand.NewSource(int64(cfg.Seed)*1_000_003 + int64(idx)))
	n := len(w)
	z := make([]float64, n)
	shock := make([]float64, n)
	cumulative := 1.0

	var tMix distuv.ChiSquared
	useStudentT := cfg.Distribution == StudentT
	if useStudentT {
		tMix = distuv.ChiSquared{K: cfg.DegreesOfFreedom, Src: rng}
	}

	for t := 0; t < cfg.Periods; t++ {
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		// shock = L * z, correlated per-period normal shocks.
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j <= i; j++ {
				sum += lower.At(i, j) * z[j]
			}
			shock[i] = sum
		}
		if useStudentT {
			// Normal-variance mixture: one χ² draw per period scales
			// every asset's shock, preserving the correlation
			// structure built into L while fattening the tails.
			nu := cfg.DegreesOfFreedom
			scale := nu / tMix.Rand()
			if scale < 0 {
				scale = 0
			}
			mix := math.Sqrt(scale)
			for i := range shock {
				shock[i] *= mix
			}
		}

		portRet := 0.0
		for i := 0; i < n; i++ {
			portRet += w[i] * (periodMu[i] + shock[i])
		}
		cumulative *= 1 + portRet
	}

	return cumulative - 1
}

// factorize attempts a Cholesky decomposition of sigma, adding the
// smallest ε·I that makes it positive-definite when the raw matrix
// isn't (spec.md §4.4 step 1), trying increasing ε. Returns the
// resulting *mat.Cholesky and the ε actually applied (0 if none).
func factorize(sigma [][]float64) (*mat.Cholesky, float64, error) {
	n := len(sigma)
	base := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			base.SetSym(i, j, sigma[i][j])
		}
	}

	var chol mat.Cholesky
	if chol.Factorize(base) {
		return &chol, 0, nil
	}

	for _, eps := range []float64{1e-10, 1e-8, 1e-6, 1e-4, 1e-2, 1e-1, 1} {
		jittered := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := sigma[i][j]
				if i == j {
					v += eps
				}
				jittered.SetSym(i, j, v)
			}
		}
		var c mat.Cholesky
		if c.Factorize(jittered) {
			return &c, eps, nil
		}
	}

	return nil, 0, model.NewError(model.KindInvalidCovariance, "covariance matrix is not positive semi-definite even after jitter")
}
