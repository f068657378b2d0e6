// Package estimator supplies the expected-return vector μ and
// covariance matrix Σ a simulation run needs (spec.md §4.6, C6). The
// default is the spec's synthetic generator; production callers can
// inject a real estimator (historical, factor-model, vendor feed)
// through the same Estimator interface.
package estimator

import (
	"math"

	"github.com/fintual/rebalancer/internal/model"
)

// Estimator produces (mu, sigma) for a fixed ticker ordering.
type Estimator interface {
	Estimate(tickers []string) (mu []float64, sigma [][]float64, err error)
}

// Synthetic is the spec's default estimator: μ_i = 0.08 + 0.02·i and
// Σ_ij = 0.15² on the diagonal, 0.15²·0.30 off-diagonal, where i is
// the position of ticker i in the caller's fixed ordering.
type Synthetic struct{}

// NewSynthetic constructs the default synthetic estimator.
func NewSynthetic() Synthetic { return Synthetic{} }

func (Synthetic) Estimate(tickers []string) ([]float64, [][]float64, error) {
	n := len(tickers)
	mu := make([]float64, n)
	sigma := make([][]float64, n)
	const vol = 0.15
	const corr = 0.30
	variance := vol * vol
	covariance := variance * corr

	for i := range mu {
		mu[i] = 0.08 + 0.02*float64(i)
	}
	for i := 0; i < n; i++ {
		sigma[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				sigma[i][j] = variance
			} else {
				sigma[i][j] = covariance
			}
		}
	}
	return mu, sigma, nil
}

// Validate checks that sigma is square, symmetric, and consistent
// with n assets, returning InvalidCovariance on any failure. It does
// not check positive-semi-definiteness — the simulator's Cholesky
// jitter step (internal/simulate) handles near-PSD matrices, and a
// matrix that isn't PSD even after jitter fails there instead.
func Validate(n int, mu []float64, sigma [][]float64) error {
	if len(mu) != n {
		return model.NewError(model.KindInvalidCovariance, "mu has length %d, expected %d", len(mu), n)
	}
	if len(sigma) != n {
		return model.NewError(model.KindInvalidCovariance, "sigma has %d rows, expected %d", len(sigma), n)
	}
	const symTol = 1e-9
	for i := 0; i < n; i++ {
		if len(sigma[i]) != n {
			return model.NewError(model.KindInvalidCovariance, "sigma row %d has %d columns, expected %d", i, len(sigma[i]), n)
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(sigma[i][j]-sigma[j][i]) > symTol {
				return model.NewError(model.KindInvalidCovariance, "sigma is not symmetric at (%d,%d)", i, j)
			}
		}
		if sigma[i][i] < 0 {
			return model.NewError(model.KindInvalidCovariance, "sigma has a negative variance at index %d", i)
		}
	}
	return nil
}
