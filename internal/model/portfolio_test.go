package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/money"
)

func mustPrice(t *testing.T, f float64) money.Value {
	t.Helper()
	v, err := money.NewFromFloat(f, 2)
	require.NoError(t, err)
	return v
}

func examplePortfolio(t *testing.T) *Portfolio {
	t.Helper()
	positions := []Position{
		{
			Asset:            Asset{Ticker: "AAA", Class: AssetClassStock, CurrentPrice: mustPrice(t, 100), Currency: "USD"},
			Shares:           money.NewFromInt(6),
			TargetAllocation: decimal.NewFromFloat(0.5),
		},
		{
			Asset:            Asset{Ticker: "BBB", Class: AssetClassStock, CurrentPrice: mustPrice(t, 100), Currency: "USD"},
			Shares:           money.NewFromInt(2),
			TargetAllocation: decimal.NewFromFloat(0.3),
		},
	}
	p, err := NewPortfolio("goal-1", money.NewFromInt(200), positions)
	require.NoError(t, err)
	return p
}

func TestPortfolioTickerOrderIsFixed(t *testing.T) {
	p := examplePortfolio(t)
	assert.Equal(t, []string{"AAA", "BBB"}, p.Tickers())
}

func TestPortfolioTargetWeightsAreNotRenormalized(t *testing.T) {
	p := examplePortfolio(t)
	// target_allocation sums to 0.8, leaving 0.2 of cash slack; the
	// weight vector must preserve that gap rather than renormalize to 1.
	target := p.TargetWeights()
	assert.InDelta(t, 0.5, target[0], 1e-9)
	assert.InDelta(t, 0.3, target[1], 1e-9)
}

func TestPortfolioCurrentWeights(t *testing.T) {
	p := examplePortfolio(t)
	// invested value = 6*100 + 2*100 = 800, cash = 200 (unused in this vector)
	current := p.CurrentWeights()
	assert.InDelta(t, 0.75, current[0], 1e-9)
	assert.InDelta(t, 0.25, current[1], 1e-9)
}

func TestPortfolioCurrentWeightsZeroInvested(t *testing.T) {
	positions := []Position{
		{Asset: Asset{Ticker: "AAA", CurrentPrice: mustPrice(t, 100)}, Shares: money.Zero, TargetAllocation: decimal.NewFromFloat(0.5)},
	}
	p, err := NewPortfolio("g", money.NewFromInt(100), positions)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, p.CurrentWeights())
}

func TestNewPortfolioRejectsDuplicateTickers(t *testing.T) {
	positions := []Position{
		{Asset: Asset{Ticker: "AAA", CurrentPrice: mustPrice(t, 100)}, Shares: money.NewFromInt(1), TargetAllocation: decimal.NewFromFloat(0.1)},
		{Asset: Asset{Ticker: "AAA", CurrentPrice: mustPrice(t, 100)}, Shares: money.NewFromInt(1), TargetAllocation: decimal.NewFromFloat(0.1)},
	}
	_, err := NewPortfolio("g", money.Zero, positions)
	assert.Error(t, err)
}

func TestNewPortfolioRejectsNegativeCash(t *testing.T) {
	_, err := NewPortfolio("g", money.NewFromInt(-1), nil)
	assert.Error(t, err)
}

func TestPortfolioValidateEmpty(t *testing.T) {
	p, err := NewPortfolio("g", money.Zero, nil)
	require.NoError(t, err)
	err = p.Validate()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindEmptyPortfolio, kind)
}

func TestPortfolioValidateTargetsOverOne(t *testing.T) {
	positions := []Position{
		{Asset: Asset{Ticker: "AAA", CurrentPrice: mustPrice(t, 100)}, Shares: money.NewFromInt(1), TargetAllocation: decimal.NewFromFloat(0.7)},
		{Asset: Asset{Ticker: "BBB", CurrentPrice: mustPrice(t, 100)}, Shares: money.NewFromInt(1), TargetAllocation: decimal.NewFromFloat(0.7)},
	}
	p, err := NewPortfolio("g", money.Zero, positions)
	require.NoError(t, err)
	err = p.Validate()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidTargets, kind)
}
