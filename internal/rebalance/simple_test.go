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

func mustVal(t *testing.T, f float64) money.Value {
	t.Helper()
	v, err := money.NewFromFloat(f, 2)
	require.NoError(t, err)
	return v
}

func driftedPortfolio(t *testing.T) *model.Portfolio {
	t.Helper()
	positions := []model.Position{
		{
			Asset:            model.Asset{Ticker: "AAA", Class: model.AssetClassStock, CurrentPrice: mustVal(t, 100), Currency: "USD"},
			Shares:           money.NewFromInt(9), // 900 of 1000 = 90%, target 50%
			TargetAllocation: decimal.NewFromFloat(0.5),
		},
		{
			Asset:            model.Asset{Ticker: "BBB", Class: model.AssetClassStock, CurrentPrice: mustVal(t, 100), Currency: "USD"},
			Shares:           money.NewFromInt(1), // 100 of 1000 = 10%, target 50%
			TargetAllocation: decimal.NewFromFloat(0.5),
		},
	}
	p, err := model.NewPortfolio("g", money.Zero, positions)
	require.NoError(t, err)
	return p
}

func TestSimpleStrategyGeneratesOffsettingTrades(t *testing.T) {
	s := NewSimple()
	p := driftedPortfolio(t)
	result, err := s.Rebalance(p, constraints.Default())
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	byTicker := make(map[string]model.Trade, 2)
	for _, tr := range result.Trades {
		byTicker[tr.Ticker] = tr
	}
	assert.Equal(t, model.ActionSell, byTicker["AAA"].Action)
	assert.Equal(t, model.ActionBuy, byTicker["BBB"].Action)
}

func TestSimpleStrategyNoTradesWithinThreshold(t *testing.T) {
	s := NewSimple()
	positions := []model.Position{
		{
			Asset:            model.Asset{Ticker: "AAA", CurrentPrice: mustVal(t, 100)},
			Shares:           money.NewFromInt(5),
			TargetAllocation: decimal.NewFromFloat(0.5),
		},
	}
	p, err := model.NewPortfolio("g", money.NewFromInt(500), positions)
	require.NoError(t, err)

	result, err := s.Rebalance(p, constraints.Default())
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestSimpleStrategyRejectsInvalidPortfolio(t *testing.T) {
	s := NewSimple()
	p, err := model.NewPortfolio("g", money.Zero, nil)
	require.NoError(t, err)
	_, err = s.Rebalance(p, constraints.Default())
	assert.Error(t, err)
}

func TestSimpleStrategyReportsDriftMetrics(t *testing.T) {
	s := NewSimple()
	p := driftedPortfolio(t)
	result, err := s.Rebalance(p, constraints.Default())
	require.NoError(t, err)
	assert.InDelta(t, 0.4, result.Metrics["max_drift_before"], 1e-9)
	assert.LessOrEqual(t, result.Metrics["max_drift_after"].(float64), result.Metrics["max_drift_before"].(float64))
}
