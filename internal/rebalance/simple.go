package rebalance

import (
	"fmt"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/model"
)

// SimpleStrategy is the drift-only baseline (spec.md §4.9, C9): for
// each position, trade toward target_weight whenever the drift clears
// rebalance_threshold, with no simulation or optimization involved.
type SimpleStrategy struct{}

// NewSimple constructs a SimpleStrategy.
func NewSimple() SimpleStrategy { return SimpleStrategy{} }

func (SimpleStrategy) Rebalance(portfolio *model.Portfolio, c constraints.TradingConstraints) (*model.RebalanceResult, error) {
	if err := portfolio.Validate(); err != nil {
		return nil, err
	}

	driftBefore := drift(portfolio)
	maxDriftBefore := maxAbs(driftBefore)

	target := portfolio.TargetWeights()
	trades := tradesFromWeights(portfolio, target, c.RebalanceThreshold, simpleReason)
	trades, warnings := applyConstraints(portfolio, trades, c)
	trades = sortTickerOrder(portfolio, trades)

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
	result.Metrics["max_drift_after"] = maxAbs(driftAfter(portfolio.Tickers(), target, finalWeights))

	for _, w := range warnings {
		result.AddWarning(w)
	}
	return result, nil
}

func simpleReason(ticker string, delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("underweight by %.2f%%, rebalancing toward target", delta*100)
	}
	return fmt.Sprintf("overweight by %.2f%%, rebalancing toward target", -delta*100)
}

func maxAbs(m map[string]float64) float64 {
	max := 0.0
	for _, v := range m {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

func driftAfter(tickers []string, target []float64, final map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		out[t] = target[i] - final[t]
	}
	return out
}

func turnoverPct(trades []model.Trade, portfolio *model.Portfolio) float64 {
	total := sumTradeValue(trades)
	tv := portfolio.TotalValue()
	if tv.IsZero() {
		return 0
	}
	f, _ := total.DivValue(tv).Float64()
	return f * 100
}
