// Package rebalance implements the RebalanceStrategy contract and its
// two concrete strategies (spec.md §4.8-§4.11, C8-C11): a drift-only
// baseline and a CVaR-constrained optimizer, both funneled through the
// same constraint pipeline. Grounded on the teacher's
// internal/analytics/portfolio_optimizer.go, whose
// OptimizePortfolio/generateRebalancingActions pair plays the same
// role (derive target weights, diff against current, emit trades),
// adapted here into the spec's closed-form drift/CVaR split.
package rebalance

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
)

// Strategy is the abstract contract from spec.md §4.8.
type Strategy interface {
	Rebalance(portfolio *model.Portfolio, c constraints.TradingConstraints) (*model.RebalanceResult, error)
}

// drift returns target_weight - current_weight keyed by ticker, where
// current_weight is the position's share of total portfolio value
// (cash included), the same basis as the target allocations.
func drift(portfolio *model.Portfolio) map[string]float64 {
	totalValue := portfolio.TotalValue()
	target := portfolio.TargetWeights()
	out := make(map[string]float64, len(target))
	for i, pos := range portfolio.Positions() {
		out[pos.Asset.Ticker] = target[i] - pos.CurrentAllocation(totalValue).InexactFloat64()
	}
	return out
}

// tradesFromWeights converts a target weight vector (either
// target_weights() or a CVaR optimum w*) into BUY/SELL trades using
// the per-asset drift rule shared by §4.9 and §4.10 step 5: for each
// position whose |weight − current| clears threshold, trade value =
// |delta| × total_value, shares = value / price. current is the
// position's share of total portfolio value, cash included.
func tradesFromWeights(portfolio *model.Portfolio, weights []float64, threshold decimal.Decimal, reasonFn func(ticker string, delta float64) string) []model.Trade {
	totalValue := portfolio.TotalValue()
	positions := portfolio.Positions()

	var trades []model.Trade
	for i, pos := range positions {
		deltaF := weights[i] - pos.CurrentAllocation(totalValue).InexactFloat64()
		delta := decimal.NewFromFloat(deltaF)
		if delta.Abs().LessThan(threshold) {
			continue
		}
		value := totalValue.Mul(delta.Abs())
		price := pos.Asset.CurrentPrice
		if price.IsZero() {
			continue
		}
		shares := value.DivValue(price)

		action := model.ActionSell
		if deltaF > 0 {
			action = model.ActionBuy
		}
		trades = append(trades, model.Trade{
			Ticker: pos.Asset.Ticker,
			Action: action,
			Shares: shares,
			Price:  price,
			Reason: reasonFn(pos.Asset.Ticker, deltaF),
		})
	}
	return trades
}

// transactionCost is total trade value times the configured bps rate.
func transactionCost(totalTradeValue money.Value, bps decimal.Decimal) money.Value {
	return totalTradeValue.Mul(bps)
}

// estimateFinalAllocations projects the post-trade weight of every
// position: current market value adjusted by the trade (buy adds,
// sell subtracts), divided by the post-trade total portfolio value.
func estimateFinalAllocations(portfolio *model.Portfolio, trades []model.Trade) map[string]decimal.Decimal {
	tradeByTicker := make(map[string]model.Trade, len(trades))
	for _, t := range trades {
		tradeByTicker[t.Ticker] = t
	}

	// A BUY moves value from cash into a position and a SELL moves it
	// back; total portfolio value is unaffected before transaction
	// costs, so total_value is the stable denominator for every
	// position's post-trade weight.
	totalValue := portfolio.TotalValue()

	out := make(map[string]decimal.Decimal, len(portfolio.Positions()))
	if totalValue.IsZero() {
		for _, pos := range portfolio.Positions() {
			out[pos.Asset.Ticker] = decimal.Zero
		}
		return out
	}

	for _, pos := range portfolio.Positions() {
		finalValue := pos.MarketValue()
		if t, ok := tradeByTicker[pos.Asset.Ticker]; ok {
			if t.Action == model.ActionBuy {
				finalValue = finalValue.Add(t.Value())
			} else {
				finalValue = finalValue.Sub(t.Value())
			}
		}
		out[pos.Asset.Ticker] = finalValue.DivValue(totalValue)
	}
	return out
}

// sumTradeValue returns Σ trade.Value() over trades.
func sumTradeValue(trades []model.Trade) money.Value {
	total := money.Zero
	for _, t := range trades {
		total = total.Add(t.Value())
	}
	return total
}

func sumByAction(trades []model.Trade, action model.Action) money.Value {
	total := money.Zero
	for _, t := range trades {
		if t.Action == action {
			total = total.Add(t.Value())
		}
	}
	return total
}

// sortTickerOrder returns trades reordered to match the portfolio's
// ticker ordering, so output is always emitted in portfolio order
// regardless of internal pipeline processing order.
func sortTickerOrder(portfolio *model.Portfolio, trades []model.Trade) []model.Trade {
	order := make(map[string]int, len(portfolio.Tickers()))
	for i, t := range portfolio.Tickers() {
		order[t] = i
	}
	out := append([]model.Trade(nil), trades...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && order[out[j-1].Ticker] > order[out[j].Ticker]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
