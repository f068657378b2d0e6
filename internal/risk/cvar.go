// Package risk computes Value-at-Risk and Conditional Value-at-Risk
// from a sample of simulated portfolio returns (spec.md §4.5, C5).
// Grounded on the order-statistics VaR/CVaR approach in
// aristath-sentinel's trader/pkg/formulas cvar helpers.
package risk

import (
	"math"
	"sort"

	"github.com/fintual/rebalancer/internal/model"
)

// Evaluator computes VaR and CVaR at a confidence level α from a
// sample of returns (losses are negative returns).
type Evaluator struct{}

// New constructs an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// VaR returns the α-level Value-at-Risk of returns: the loss such
// that a fraction α of outcomes are at least that bad. alpha is the
// confidence level, e.g. 0.95. Returns are sorted ascending (worst
// first) and the (1-α) quantile is taken by linear interpolation
// between order statistics, matching the common "type 7" quantile
// convention.
func (e *Evaluator) VaR(returns []float64, alpha float64) (float64, error) {
	sorted, err := prepare(returns, alpha)
	if err != nil {
		return 0, err
	}
	q := quantile(sorted, 1-alpha)
	return -q, nil
}

// CVaR returns the α-level Conditional Value-at-Risk: the expected
// loss conditional on the loss being at least the VaR. It is computed
// as the mean of the tail at or below the (1-α) quantile.
func (e *Evaluator) CVaR(returns []float64, alpha float64) (float64, error) {
	sorted, err := prepare(returns, alpha)
	if err != nil {
		return 0, err
	}

	n := len(sorted)
	if alpha >= 1 {
		// Degenerate edge case: the (1-α) quantile is the minimum, so
		// the tail is the single worst observation.
		return -sorted[0], nil
	}

	cutoff := (1 - alpha) * float64(n)
	tailCount := int(math.Ceil(cutoff))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > n {
		tailCount = n
	}

	tail := sorted[:tailCount]
	return -mean(tail), nil
}

func prepare(returns []float64, alpha float64) ([]float64, error) {
	if len(returns) == 0 {
		return nil, model.NewError(model.KindInsufficientScenarios, "cannot compute risk metrics from an empty return sample")
	}
	if alpha <= 0 || alpha > 1 {
		return nil, model.NewError(model.KindInvalidTargets, "confidence level alpha must be in (0,1], got %f", alpha)
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	return sorted, nil
}

// quantile returns the p-quantile of an already-sorted slice via
// linear interpolation between the two bracketing order statistics.
// All values in sorted are identical in the degenerate all-equal
// case, so interpolation naturally collapses to that value.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
