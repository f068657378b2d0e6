package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
)

func sampleGoal(t *testing.T, withTarget bool) *model.Goal {
	t.Helper()
	price, err := money.NewFromFloat(100, 2)
	require.NoError(t, err)
	positions := []model.Position{
		{
			Asset:            model.Asset{Ticker: "AAA", Name: "Acme", Class: model.AssetClassStock, CurrentPrice: price, Currency: "USD"},
			Shares:           money.NewFromInt(5),
			TargetAllocation: money.NewFromInt(1).Decimal().Div(money.NewFromInt(2).Decimal()),
			Deposited:        money.NewFromInt(400),
		},
	}
	p, err := model.NewPortfolio("g1", money.NewFromInt(50), positions)
	require.NoError(t, err)

	g := &model.Goal{ID: "g1", Name: "Retirement", Type: model.GoalRetirement, Risk: model.RiskModerate, Portfolio: p}
	if withTarget {
		target := money.NewFromInt(10000)
		g.TargetAmount = &target
	}
	return g
}

func TestGoalDocumentRoundTrip(t *testing.T) {
	g := sampleGoal(t, true)
	doc := FromModel("user-1", g)

	assert.Equal(t, "g1", doc.ID)
	assert.Equal(t, "user-1", doc.UserID)
	assert.Equal(t, "10000.00", doc.TargetAmount)
	require.Len(t, doc.Portfolio.Positions, 1)
	assert.Equal(t, "AAA", doc.Portfolio.Positions[0].Ticker)

	back, err := doc.ToModel()
	require.NoError(t, err)
	assert.Equal(t, g.ID, back.ID)
	assert.Equal(t, g.Portfolio.Cash.String(), back.Portfolio.Cash.String())
	require.NotNil(t, back.TargetAmount)
	assert.True(t, back.TargetAmount.Equal(*g.TargetAmount))

	origPos, ok := g.Portfolio.Position("AAA")
	require.True(t, ok)
	backPos, ok := back.Portfolio.Position("AAA")
	require.True(t, ok)
	assert.True(t, origPos.Shares.Equal(backPos.Shares))
	assert.True(t, origPos.TargetAllocation.Equal(backPos.TargetAllocation))
}

func TestGoalDocumentRoundTripWithoutTargetAmount(t *testing.T) {
	g := sampleGoal(t, false)
	doc := FromModel("user-1", g)
	assert.Empty(t, doc.TargetAmount)

	back, err := doc.ToModel()
	require.NoError(t, err)
	assert.Nil(t, back.TargetAmount)
}
