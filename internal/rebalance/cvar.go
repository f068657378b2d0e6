package rebalance

import (
	"fmt"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/estimator"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/optimize"
	"github.com/fintual/rebalancer/internal/risk"
	"github.com/fintual/rebalancer/internal/simulate"
)

// CVaRConfig configures CVaRStrategy (spec.md §6 strategy_config
// tagged union, CVaR variant).
type CVaRConfig struct {
	NScenarios      int
	ConfidenceLevel float64
	RiskAversion    float64 // λ, default 0.1
	Seed            uint64
	Periods         int // T, default 252
}

// DefaultCVaRConfig returns the defaults from spec.md §4.10.
func DefaultCVaRConfig() CVaRConfig {
	return CVaRConfig{
		NScenarios:      1000,
		ConfidenceLevel: 0.95,
		RiskAversion:    0.1,
		Seed:            42,
		Periods:         252,
	}
}

func (c CVaRConfig) withDefaults() CVaRConfig {
	if c.NScenarios <= 0 {
		c.NScenarios = 1000
	}
	if c.ConfidenceLevel <= 0 {
		c.ConfidenceLevel = 0.95
	}
	if c.RiskAversion == 0 {
		c.RiskAversion = 0.1
	}
	if c.Periods <= 0 {
		c.Periods = 252
	}
	return c
}

// CVaRStrategy solves for the weight vector that minimizes CVaR plus
// a tracking-error penalty against target weights (spec.md §4.10,
// C10). Its call runs through the states
// Init → Estimating → Optimizing → GeneratingTrades →
// ApplyingConstraints → Done, with Optimizing branching to Fallback
// on non-convergence before rejoining at GeneratingTrades.
type CVaRStrategy struct {
	Estimator estimator.Estimator
	Config    CVaRConfig
	simulator *simulate.Simulator
	evaluator *risk.Evaluator
}

// NewCVaR constructs a CVaRStrategy. A nil estimator uses the
// synthetic default (internal/estimator.Synthetic).
func NewCVaR(est estimator.Estimator, cfg CVaRConfig) *CVaRStrategy {
	if est == nil {
		est = estimator.NewSynthetic()
	}
	return &CVaRStrategy{
		Estimator: est,
		Config:    cfg.withDefaults(),
		simulator: simulate.New(),
		evaluator: risk.New(),
	}
}

func (s *CVaRStrategy) Rebalance(portfolio *model.Portfolio, c constraints.TradingConstraints) (*model.RebalanceResult, error) {
	// Init
	if err := portfolio.Validate(); err != nil {
		return nil, err
	}

	driftBefore := drift(portfolio)
	maxDriftBefore := maxAbs(driftBefore)

	// Estimating
	tickers := portfolio.Tickers()
	n := len(tickers)
	mu, sigma, err := s.Estimator.Estimate(tickers)
	if err != nil {
		return nil, err
	}
	if err := estimator.Validate(n, mu, sigma); err != nil {
		return nil, err
	}

	target := portfolio.TargetWeights()
	initial := portfolio.CurrentWeights()
	if allZero(initial) {
		initial = append([]float64(nil), target...)
	}

	simCfg := simulate.DefaultConfig()
	simCfg.Scenarios = s.Config.NScenarios
	simCfg.Periods = s.Config.Periods
	simCfg.Seed = s.Config.Seed

	// A probe run surfaces simulator failures (too few scenarios, a
	// covariance that stays non-PSD after jitter) as fatal errors. They
	// depend on mu, sigma and simCfg only, not on the weights, so every
	// later run in this call succeeds once the probe does.
	if _, _, err := s.simulator.Run(initial, mu, sigma, simCfg); err != nil {
		return nil, err
	}

	objective := func(w []float64) float64 {
		returns, _, simErr := s.simulator.Run(w, mu, sigma, simCfg)
		if simErr != nil {
			// Not reached after the probe run above; a failure is
			// penalized rather than allowed to panic inside gonum's
			// optimizer loop.
			return 1e9
		}
		cvar, cvarErr := s.evaluator.CVaR(returns, s.Config.ConfidenceLevel)
		if cvarErr != nil {
			return 1e9
		}
		tracking := 0.0
		for i, wi := range w {
			d := wi - target[i]
			if d < 0 {
				d = -d
			}
			tracking += d
		}
		return cvar + s.Config.RiskAversion*tracking
	}

	var maxPosition *float64
	if c.MaxPositionSize != nil {
		f, _ := c.MaxPositionSize.Float64()
		maxPosition = &f
	}

	// Optimizing (branches to Fallback below on non-convergence)
	optResult := optimize.Minimize(initial, objective, maxPosition)
	wStar := optResult.Weights
	var warnings []string
	if !optResult.Converged {
		wStar = target
		warnings = append(warnings, "optimizer_non_convergent: falling back to target weights")
	}

	// GeneratingTrades
	reasonFn := func(ticker string, delta float64) string {
		if delta > 0 {
			return fmt.Sprintf("CVaR-optimized: underweight by %.2f%%", delta*100)
		}
		return fmt.Sprintf("CVaR-optimized: overweight by %.2f%%", -delta*100)
	}
	trades := tradesFromWeights(portfolio, wStar, c.RebalanceThreshold, reasonFn)

	// ApplyingConstraints
	trades, pipelineWarnings := applyConstraints(portfolio, trades, c)
	warnings = append(warnings, pipelineWarnings...)
	trades = sortTickerOrder(portfolio, trades)

	// Done
	finalCVaR := 0.0
	if finalReturns, _, simErr := s.simulator.Run(wStar, mu, sigma, simCfg); simErr == nil {
		if cvar, cvarErr := s.evaluator.CVaR(finalReturns, s.Config.ConfidenceLevel); cvarErr == nil {
			finalCVaR = cvar
		}
	}

	result := model.NewResult()
	result.Trades = trades
	result.TotalBuyValue = sumByAction(trades, model.ActionBuy)
	result.TotalSellValue = sumByAction(trades, model.ActionSell)
	result.EstimatedCost = transactionCost(sumTradeValue(trades), c.TransactionCostBps)
	result.FinalAllocations = estimateFinalAllocations(portfolio, trades)

	finalWeights := make(map[string]float64, len(result.FinalAllocations))
	for ticker, w := range result.FinalAllocations {
		f, _ := w.Float64()
		finalWeights[ticker] = f
	}
	result.Metrics["turnover_pct"] = turnoverPct(trades, portfolio)
	result.Metrics["max_drift_before"] = maxDriftBefore
	result.Metrics["max_drift_after"] = maxAbs(driftAfter(tickers, target, finalWeights))
	result.Metrics["cvar"] = finalCVaR
	result.Metrics["optimal_weights"] = weightMap(tickers, wStar)
	result.Metrics["iterations"] = optResult.Iterations

	for _, w := range warnings {
		result.AddWarning(w)
	}
	return result, nil
}

func allZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}

func weightMap(tickers []string, weights []float64) map[string]float64 {
	out := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		if i < len(weights) {
			out[t] = weights[i]
		}
	}
	return out
}
