package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/money"
)

func exampleGoal(t *testing.T, target *money.Value) *Goal {
	t.Helper()
	positions := []Position{
		{
			Asset:            Asset{Ticker: "AAA", Class: AssetClassStock, CurrentPrice: mustPrice(t, 100), Currency: "USD"},
			Shares:           money.NewFromInt(8),
			TargetAllocation: decimal.NewFromFloat(0.5),
			Deposited:        money.NewFromInt(700),
		},
	}
	p, err := NewPortfolio("g", money.NewFromInt(50), positions)
	require.NoError(t, err)
	return &Goal{ID: "g", Name: "Retirement", Type: GoalRetirement, Risk: RiskModerate, Portfolio: p, TargetAmount: target}
}

func TestGoalBalance(t *testing.T) {
	g := exampleGoal(t, nil)
	// balance = cash 50 + 8*100 = 850
	assert.Equal(t, "850.00", g.Balance().String())
}

func TestGoalDepositadoNetoAndGanado(t *testing.T) {
	g := exampleGoal(t, nil)
	// depositado neto = cash 50 + deposited 700 = 750
	assert.Equal(t, "750.00", g.DepositadoNeto().String())
	// ganado = balance 850 - depositado neto 750 = 100
	assert.Equal(t, "100.00", g.Ganado().String())
}

func TestGoalProgressPercentageWithTarget(t *testing.T) {
	target := mustPrice(t, 1000)
	g := exampleGoal(t, &target)
	pct, ok := g.ProgressPercentage()
	require.True(t, ok)
	f, _ := pct.Float64()
	assert.InDelta(t, 85.0, f, 1e-6)
}

func TestGoalProgressPercentageWithoutTarget(t *testing.T) {
	g := exampleGoal(t, nil)
	_, ok := g.ProgressPercentage()
	assert.False(t, ok)
}

func TestGoalProgressPercentageZeroTarget(t *testing.T) {
	zero := money.Zero
	g := exampleGoal(t, &zero)
	_, ok := g.ProgressPercentage()
	assert.False(t, ok)
}
