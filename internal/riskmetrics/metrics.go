// Package riskmetrics computes the auxiliary diagnostics from
// spec.md §4.7 (C7): volatility, Sharpe, Sortino, max drawdown. These
// are never on the rebalance hot path, and no strategy adds them to a
// RebalanceResult's Metrics map; they are standalone functions over a
// return series. Grounded
// on the teacher's internal/calculator/risk_calculator.go, which
// computes this same family of ratios from a return series.
package riskmetrics

import (
	"math"

	"github.com/montanaflynn/stats"
)

// PeriodsPerYear is used to annualize a per-period volatility.
const PeriodsPerYear = 252

// Volatility returns the annualized standard deviation of returns.
func Volatility(returns []float64) (float64, error) {
	sd, err := stats.StandardDeviation(stats.Float64Data(returns))
	if err != nil {
		return 0, err
	}
	return sd * math.Sqrt(float64(PeriodsPerYear)), nil
}

// Sharpe returns the annualized Sharpe ratio given a per-period
// risk-free rate rf.
func Sharpe(returns []float64, rf float64) (float64, error) {
	mean, err := stats.Mean(stats.Float64Data(returns))
	if err != nil {
		return 0, err
	}
	sd, err := stats.StandardDeviation(stats.Float64Data(returns))
	if err != nil {
		return 0, err
	}
	if sd == 0 {
		return 0, nil
	}
	excess := mean - rf
	return (excess / sd) * math.Sqrt(float64(PeriodsPerYear)), nil
}

// Sortino returns the annualized Sortino ratio, using only
// below-target returns for the denominator. It returns +Inf if there
// are no negative-excess returns, per spec.md §4.7.
func Sortino(returns []float64, rf float64) (float64, error) {
	mean, err := stats.Mean(stats.Float64Data(returns))
	if err != nil {
		return 0, err
	}
	excess := mean - rf

	var downside []float64
	for _, r := range returns {
		if d := r - rf; d < 0 {
			downside = append(downside, d)
		}
	}
	if len(downside) == 0 {
		if excess >= 0 {
			return math.Inf(1), nil
		}
		return math.Inf(-1), nil
	}

	sumSq := 0.0
	for _, d := range downside {
		sumSq += d * d
	}
	downsideDeviation := math.Sqrt(sumSq / float64(len(returns)))
	if downsideDeviation == 0 {
		return math.Inf(1), nil
	}
	return (excess / downsideDeviation) * math.Sqrt(float64(PeriodsPerYear)), nil
}

// MaxDrawdown returns the largest peak-to-trough decline (as a
// positive fraction) of the cumulative equity curve implied by
// returns.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
