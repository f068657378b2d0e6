package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/model"
)

func TestVaRKnownSample(t *testing.T) {
	e := New()
	// 10 evenly spaced returns from -0.09 to 0.00, worst decile is -0.09.
	returns := []float64{-0.09, -0.08, -0.07, -0.06, -0.05, -0.04, -0.03, -0.02, -0.01, 0.00}
	v, err := e.VaR(returns, 0.90)
	require.NoError(t, err)
	// p=0.10 quantile of 10 ascending points interpolates 90% of the
	// way from the first to the second order statistic.
	assert.InDelta(t, 0.081, v, 1e-9)
}

func TestCVaRKnownSample(t *testing.T) {
	e := New()
	returns := []float64{-0.10, -0.08, -0.06, -0.04, -0.02, 0.00, 0.02, 0.04, 0.06, 0.08}
	c, err := e.CVaR(returns, 0.90)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, c, 1e-9)
}

func TestCVaRRoundsTailCountUp(t *testing.T) {
	e := New()
	// 21 points, alpha=0.95 -> cutoff = 0.05*21 = 1.05, which must round
	// up to a tail of 2 observations, not down to 1.
	returns := make([]float64, 21)
	for i := range returns {
		returns[i] = -0.01 * float64(i+1)
	}
	c, err := e.CVaR(returns, 0.95)
	require.NoError(t, err)
	// worst two observations are -0.21 and -0.20; mean loss is 0.205.
	// A floor-based tail count would wrongly average only -0.21 (0.21).
	assert.InDelta(t, 0.205, c, 1e-9)
}

func TestCVaRDegenerateAlphaAtOne(t *testing.T) {
	e := New()
	returns := []float64{-0.01, 0.02, -0.03}
	c, err := e.CVaR(returns, 1.0)
	require.NoError(t, err)
	// the worst observation is -0.03, so the loss is 0.03.
	assert.InDelta(t, 0.03, c, 1e-9)
}

func TestEmptyReturnsFails(t *testing.T) {
	e := New()
	_, err := e.VaR(nil, 0.95)
	require.Error(t, err)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.KindInsufficientScenarios, kind)
}

func TestAlphaOutOfRangeFails(t *testing.T) {
	e := New()
	_, err := e.VaR([]float64{0.01}, 0)
	require.Error(t, err)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.KindInvalidTargets, kind)

	_, err = e.CVaR([]float64{0.01}, 1.5)
	require.Error(t, err)
}
