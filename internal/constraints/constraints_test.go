package constraints

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func TestDefaultPreset(t *testing.T) {
	c := Default()
	assert.True(t, c.MinTradeValue.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, c.MaxTurnover)
	assert.Nil(t, c.MaxPositionSize)
	assert.True(t, c.AllowFractionalShares)
	assert.True(t, c.MinLiquidity.IsZero())
}

func TestConservativePreset(t *testing.T) {
	c := Conservative()
	assert.InDelta(t, 0.50, toFloat(c.MinLiquidity), 1e-9)
	assert.InDelta(t, 0.01, toFloat(c.RebalanceThreshold), 1e-9)
}

func TestModeratePreset(t *testing.T) {
	c := Moderate()
	assert.InDelta(t, 0.10, toFloat(c.MinLiquidity), 1e-9)
	assert.InDelta(t, 0.02, toFloat(c.RebalanceThreshold), 1e-9)
}

func TestRiskyPreset(t *testing.T) {
	c := Risky()
	assert.InDelta(t, 0.05, toFloat(c.MinLiquidity), 1e-9)
	assert.InDelta(t, 0.05, toFloat(c.RebalanceThreshold), 1e-9)
}

func TestPresetsShareDefaultTransactionCost(t *testing.T) {
	for _, c := range []TradingConstraints{Default(), Conservative(), Moderate(), Risky()} {
		assert.InDelta(t, 0.0025, toFloat(c.TransactionCostBps), 1e-9)
	}
}
