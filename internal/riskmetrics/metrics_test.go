package riskmetrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatility(t *testing.T) {
	v, err := Volatility([]float64{0.01, -0.01, 0.01, -0.01})
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}

func TestSharpeZeroStdDev(t *testing.T) {
	s, err := Sharpe([]float64{0.01, 0.01, 0.01}, 0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestSortinoNoDownsideReturnsPositiveInf(t *testing.T) {
	s, err := Sortino([]float64{0.01, 0.02, 0.03}, 0.0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(s, 1))
}

func TestSortinoAllDownsideReturnsFiniteNegative(t *testing.T) {
	// mean excess -0.02, downside deviation sqrt(0.0014/3); annualized
	// by sqrt(252) the ratio is -sqrt(216).
	s, err := Sortino([]float64{-0.03, -0.02, -0.01}, 0.0)
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt(216), s, 1e-9)
}

func TestSortinoWithDownside(t *testing.T) {
	s, err := Sortino([]float64{0.02, -0.01, 0.03, -0.02}, 0.0)
	require.NoError(t, err)
	assert.False(t, math.IsInf(s, 0))
}

func TestMaxDrawdown(t *testing.T) {
	// equity path: 1.0 -> 1.1 -> 0.99 -> 1.05
	dd := MaxDrawdown([]float64{0.10, -0.10, 0.0606060606})
	assert.InDelta(t, 0.10, dd, 1e-6)
}

func TestMaxDrawdownEmpty(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}
