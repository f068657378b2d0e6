package rebalance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
)

func tradeAt(t *testing.T, ticker string, action model.Action, shares int64, price float64) model.Trade {
	t.Helper()
	return model.Trade{
		Ticker: ticker,
		Action: action,
		Shares: decimal.NewFromInt(shares),
		Price:  mustVal(t, price),
	}
}

func samplePortfolioForPipeline(t *testing.T) *model.Portfolio {
	t.Helper()
	positions := []model.Position{
		{Asset: model.Asset{Ticker: "AAA", CurrentPrice: mustVal(t, 100)}, Shares: money.NewFromInt(5), TargetAllocation: decimal.NewFromFloat(0.5)},
		{Asset: model.Asset{Ticker: "BBB", CurrentPrice: mustVal(t, 100)}, Shares: money.NewFromInt(5), TargetAllocation: decimal.NewFromFloat(0.5)},
	}
	p, err := model.NewPortfolio("g", money.NewFromInt(0), positions)
	require.NoError(t, err)
	return p
}

func TestStepThresholdDropsSmallTrades(t *testing.T) {
	trades := []model.Trade{tradeAt(t, "AAA", model.ActionBuy, 1, 100)} // value 100 of total 1000 = 10%
	out := stepThreshold(trades, mustVal(t, 1000), decimal.NewFromFloat(0.20))
	assert.Empty(t, out)

	out = stepThreshold(trades, mustVal(t, 1000), decimal.NewFromFloat(0.05))
	assert.Len(t, out, 1)
}

func TestStepFractionalSharesTruncatesAndDropsZero(t *testing.T) {
	trades := []model.Trade{
		{Ticker: "AAA", Action: model.ActionBuy, Shares: decimal.NewFromFloat(2.7), Price: mustVal(t, 100)},
		{Ticker: "BBB", Action: model.ActionBuy, Shares: decimal.NewFromFloat(0.4), Price: mustVal(t, 100)},
	}
	out := stepFractionalShares(trades, false)
	require.Len(t, out, 1)
	assert.True(t, out[0].Shares.Equal(decimal.NewFromInt(2)))

	allowed := stepFractionalShares(trades, true)
	assert.Len(t, allowed, 2)
}

func TestStepMinTradeValueDropsBelowFloor(t *testing.T) {
	trades := []model.Trade{
		tradeAt(t, "AAA", model.ActionBuy, 1, 5), // value 5
		tradeAt(t, "BBB", model.ActionBuy, 1, 50), // value 50
	}
	out := stepMinTradeValue(trades, mustVal(t, 10))
	require.Len(t, out, 1)
	assert.Equal(t, "BBB", out[0].Ticker)
}

func TestStepMaxPositionCapsAndDrops(t *testing.T) {
	p := samplePortfolioForPipeline(t)
	maxPos := decimal.NewFromFloat(0.55) // cap = 550 of total 1000
	trades := []model.Trade{
		tradeAt(t, "AAA", model.ActionBuy, 2, 100), // AAA current 500, +200 = 700 > cap 550
	}
	out := stepMaxPosition(p, trades, &maxPos, mustVal(t, 1000))
	require.Len(t, out, 1)
	// allowed headroom = 550-500 = 50 -> 0.5 shares at price 100
	assert.True(t, out[0].Shares.Equal(decimal.NewFromFloat(0.5)))
}

func TestStepLiquidityFloorScalesBuysDown(t *testing.T) {
	positions := []model.Position{
		{Asset: model.Asset{Ticker: "AAA", CurrentPrice: mustVal(t, 100)}, Shares: money.NewFromInt(5), TargetAllocation: decimal.NewFromFloat(0.4)},
		{Asset: model.Asset{Ticker: "BBB", CurrentPrice: mustVal(t, 100)}, Shares: money.NewFromInt(5), TargetAllocation: decimal.NewFromFloat(0.4)},
	}
	p, err := model.NewPortfolio("g", money.NewFromInt(300), positions)
	require.NoError(t, err)
	totalValue := p.TotalValue() // 1300

	c := constraints.Default()
	c.MinLiquidity = decimal.NewFromFloat(0.10) // floor = 130
	trades := []model.Trade{
		tradeAt(t, "AAA", model.ActionBuy, 2, 100), // buy 200, more than the 170 of cash above the floor
	}
	out, warning := stepLiquidityFloor(p, trades, c, totalValue)
	assert.Empty(t, warning)
	require.Len(t, out, 1)
	assert.True(t, out[0].Shares.LessThan(decimal.NewFromInt(2)))
	assert.True(t, out[0].Shares.IsPositive())
}

func TestStepLiquidityFloorWarnsWhenUnreachable(t *testing.T) {
	p := samplePortfolioForPipeline(t)
	c := constraints.Default()
	c.MinLiquidity = decimal.NewFromFloat(0.99) // floor = 990, cash is 0, unreachable
	trades := []model.Trade{tradeAt(t, "AAA", model.ActionBuy, 1, 100)}
	out, warning := stepLiquidityFloor(p, trades, c, mustVal(t, 1000))
	assert.Equal(t, "liquidity_unreachable", warning)
	assert.Empty(t, out)
}

func TestStepMaxTurnoverScalesAllTradesUniformly(t *testing.T) {
	trades := []model.Trade{
		tradeAt(t, "AAA", model.ActionBuy, 4, 100),  // 400
		tradeAt(t, "BBB", model.ActionSell, 4, 100), // 400
	}
	maxTurnover := decimal.NewFromFloat(0.40) // cap = 400 of total 1000, traded = 800
	out := stepMaxTurnover(trades, &maxTurnover, mustVal(t, 1000))
	require.Len(t, out, 2)
	for _, tr := range out {
		assert.True(t, tr.Shares.Equal(decimal.NewFromInt(2)))
	}
}

func TestApplyConstraintsReappliesMinTradeValueAfterScaling(t *testing.T) {
	p := samplePortfolioForPipeline(t)
	c := constraints.Default()
	c.MinTradeValue = decimal.NewFromInt(50)
	maxTurnover := decimal.NewFromFloat(0.01) // forces heavy scaling down to dust
	c.MaxTurnover = &maxTurnover
	trades := []model.Trade{
		tradeAt(t, "AAA", model.ActionBuy, 4, 100),
		tradeAt(t, "BBB", model.ActionSell, 4, 100),
	}
	out, _ := applyConstraints(p, trades, c)
	// max_turnover scaling shrinks both trades to dust (value 5 each on
	// a 50 floor); the post-scaling min-trade-value re-application must
	// drop them rather than let dust trades through.
	assert.Empty(t, out)
}
