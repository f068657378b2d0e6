package rebalance

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
)

// applyConstraints runs the ordered six-step pipeline from spec.md
// §4.11. The order is contract: step 5 (liquidity floor) and step 6
// (turnover cap) each scale trades uniformly and must re-run step 3
// (minimum trade value) afterward, since scaling can produce "dust"
// trades below the floor.
func applyConstraints(portfolio *model.Portfolio, trades []model.Trade, c constraints.TradingConstraints) ([]model.Trade, []string) {
	var warnings []string
	totalValue := portfolio.TotalValue()
	minTrade := money.New(c.MinTradeValue)

	trades = stepThreshold(trades, totalValue, c.RebalanceThreshold)
	trades = stepFractionalShares(trades, c.AllowFractionalShares)
	trades = stepMinTradeValue(trades, minTrade)
	trades = stepMaxPosition(portfolio, trades, c.MaxPositionSize, totalValue)

	trades, liquidityWarning := stepLiquidityFloor(portfolio, trades, c, totalValue)
	if liquidityWarning != "" {
		warnings = append(warnings, liquidityWarning)
	}
	trades = stepMinTradeValue(trades, minTrade)

	trades = stepMaxTurnover(trades, c.MaxTurnover, totalValue)
	trades = stepMinTradeValue(trades, minTrade)

	return trades, warnings
}

// stepThreshold drops trades whose implied weight delta (value /
// total_value) is below rebalance_threshold.
func stepThreshold(trades []model.Trade, totalValue money.Value, threshold decimal.Decimal) []model.Trade {
	if totalValue.IsZero() {
		return trades
	}
	out := trades[:0:0]
	for _, t := range trades {
		delta := t.Value().DivValue(totalValue)
		if delta.GreaterThanOrEqual(threshold) {
			out = append(out, t)
		}
	}
	return out
}

// stepFractionalShares truncates share counts to whole shares when
// fractional shares aren't allowed, dropping any trade that truncates
// to zero.
func stepFractionalShares(trades []model.Trade, allowFractional bool) []model.Trade {
	if allowFractional {
		return trades
	}
	out := trades[:0:0]
	for _, t := range trades {
		whole := t.Shares.Truncate(0)
		if whole.IsZero() {
			continue
		}
		out = append(out, t.WithShares(whole))
	}
	return out
}

// stepMinTradeValue drops trades below min_trade_value. Applied once
// up front and re-applied after every uniform-scaling step.
func stepMinTradeValue(trades []model.Trade, minValue money.Value) []model.Trade {
	out := trades[:0:0]
	for _, t := range trades {
		if t.Value().GreaterThanOrEqual(minValue) {
			out = append(out, t)
		}
	}
	return out
}

// stepMaxPosition caps any BUY that would push a position's post-trade
// value above max_position_size × total_value. The reduced amount is
// redistributed proportionally to other BUYs that still have headroom
// under their own cap; anything left over once no BUY has headroom is
// dropped (not executed).
func stepMaxPosition(portfolio *model.Portfolio, trades []model.Trade, maxPositionSize *decimal.Decimal, totalValue money.Value) []model.Trade {
	if maxPositionSize == nil || totalValue.IsZero() {
		return trades
	}
	cap := totalValue.Mul(*maxPositionSize)

	currentValue := make(map[string]money.Value, len(portfolio.Positions()))
	for _, pos := range portfolio.Positions() {
		currentValue[pos.Asset.Ticker] = pos.MarketValue()
	}

	out := append([]model.Trade(nil), trades...)
	excess := money.Zero

	for i, t := range out {
		if t.Action != model.ActionBuy {
			continue
		}
		headroom := cap.Sub(currentValue[t.Ticker])
		if headroom.IsNegative() {
			headroom = money.Zero
		}
		if t.Value().LessThanOrEqual(headroom) {
			continue
		}
		allowedShares := headroom.DivValue(t.Price)
		over := t.Value().Sub(headroom)
		excess = excess.Add(over)
		out[i] = t.WithShares(allowedShares)
	}

	if excess.IsZero() || excess.IsNegative() {
		return dropZero(out)
	}

	// Redistribute the excess proportionally over BUYs with remaining
	// headroom. Each grant is capped at that BUY's headroom, so no BUY
	// is pushed over its cap and the first pass places everything that
	// fits; the excess is then cleared, so the loop runs once.
	for pass := 0; pass < 5 && excess.IsPositive(); pass++ {
		type candidate struct {
			idx      int
			headroom money.Value
		}
		var candidates []candidate
		totalHeadroom := money.Zero
		for i, t := range out {
			if t.Action != model.ActionBuy {
				continue
			}
			headroom := cap.Sub(currentValue[t.Ticker]).Sub(t.Value())
			if headroom.IsNegative() || headroom.IsZero() {
				continue
			}
			candidates = append(candidates, candidate{idx: i, headroom: headroom})
			totalHeadroom = totalHeadroom.Add(headroom)
		}
		if len(candidates) == 0 || totalHeadroom.IsZero() {
			break
		}
		remaining := excess
		excess = money.Zero
		for _, cnd := range candidates {
			share := cnd.headroom.DivValue(totalHeadroom)
			grant := remaining.Mul(share)
			if grant.GreaterThan(cnd.headroom) {
				grant = cnd.headroom
			}
			t := out[cnd.idx]
			newValue := t.Value().Add(grant)
			out[cnd.idx] = t.WithShares(newValue.DivValue(t.Price))
		}
		excess = money.Zero // whatever did not fit under any candidate's cap is dropped here
	}

	return dropZero(out)
}

func dropZero(trades []model.Trade) []model.Trade {
	out := trades[:0:0]
	for _, t := range trades {
		if t.Shares.IsZero() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// stepLiquidityFloor scales all BUYs uniformly down, if needed, so
// post-trade cash does not fall below min_liquidity × total_value. If
// even dropping every BUY to zero can't reach the floor, BUYs are
// zeroed (SELLs only reach the account) and a warning is returned
// (spec.md §7 InfeasibleConstraints — recovered, not fatal).
func stepLiquidityFloor(portfolio *model.Portfolio, trades []model.Trade, c constraints.TradingConstraints, totalValue money.Value) ([]model.Trade, string) {
	floor := totalValue.Mul(c.MinLiquidity)
	if floor.IsZero() {
		return trades, ""
	}

	buyValue := sumByAction(trades, model.ActionBuy)
	sellValue := sumByAction(trades, model.ActionSell)
	if buyValue.IsZero() {
		postCash := portfolio.Cash.Add(sellValue).Sub(transactionCost(sellValue, c.TransactionCostBps))
		if postCash.LessThan(floor) {
			return trades, "liquidity_unreachable"
		}
		return trades, ""
	}

	// Solve s in [0,1] for:
	//   cash + sellValue - s*buyValue - bps*(sellValue + s*buyValue) >= floor
	one := decimal.NewFromInt(1)
	bps := c.TransactionCostBps
	numerator := portfolio.Cash.Add(sellValue).Sub(sellValue.Mul(bps)).Sub(floor).Decimal()
	denominator := buyValue.Mul(one.Add(bps)).Decimal()

	if denominator.IsZero() {
		return trades, ""
	}
	s := numerator.Div(denominator)
	if s.GreaterThanOrEqual(one) {
		return trades, ""
	}
	if s.IsNegative() {
		s = decimal.Zero
	}

	out := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Action != model.ActionBuy {
			out = append(out, t)
			continue
		}
		out = append(out, t.WithShares(t.Shares.Mul(s)))
	}

	warning := ""
	if s.IsZero() {
		warning = "liquidity_unreachable"
	}
	return dropZero(out), warning
}

// stepMaxTurnover scales every trade uniformly if total traded value
// exceeds max_turnover × total_value.
func stepMaxTurnover(trades []model.Trade, maxTurnover *decimal.Decimal, totalValue money.Value) []model.Trade {
	if maxTurnover == nil || totalValue.IsZero() {
		return trades
	}
	traded := sumTradeValue(trades)
	cap := totalValue.Mul(*maxTurnover)
	if traded.LessThanOrEqual(cap) {
		return trades
	}
	ratio := cap.DivValue(traded)
	out := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, t.WithShares(t.Shares.Mul(ratio)))
	}
	return dropZero(out)
}
