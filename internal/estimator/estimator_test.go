package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintual/rebalancer/internal/model"
)

func TestSyntheticEstimateShapeAndValues(t *testing.T) {
	s := NewSynthetic()
	mu, sigma, err := s.Estimate([]string{"AAA", "BBB", "CCC"})
	require.NoError(t, err)

	require.Len(t, mu, 3)
	assert.InDelta(t, 0.08, mu[0], 1e-9)
	assert.InDelta(t, 0.10, mu[1], 1e-9)
	assert.InDelta(t, 0.12, mu[2], 1e-9)

	require.Len(t, sigma, 3)
	for i := range sigma {
		require.Len(t, sigma[i], 3)
		assert.InDelta(t, 0.15*0.15, sigma[i][i], 1e-9)
	}
	assert.InDelta(t, 0.15*0.15*0.30, sigma[0][1], 1e-9)
}

func TestSyntheticIsDeterministic(t *testing.T) {
	s := NewSynthetic()
	mu1, sigma1, _ := s.Estimate([]string{"A", "B"})
	mu2, sigma2, _ := s.Estimate([]string{"A", "B"})
	assert.Equal(t, mu1, mu2)
	assert.Equal(t, sigma1, sigma2)
}

func TestValidateDimensionMismatch(t *testing.T) {
	err := Validate(2, []float64{0.1}, [][]float64{{1, 0}, {0, 1}})
	require.Error(t, err)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.KindInvalidCovariance, kind)
}

func TestValidateAsymmetricSigma(t *testing.T) {
	err := Validate(2, []float64{0.1, 0.1}, [][]float64{{1, 0.2}, {0.3, 1}})
	require.Error(t, err)
}

func TestValidateNegativeDiagonal(t *testing.T) {
	err := Validate(2, []float64{0.1, 0.1}, [][]float64{{-1, 0.2}, {0.2, 1}})
	require.Error(t, err)
}

func TestValidateAcceptsWellFormedSigma(t *testing.T) {
	err := Validate(2, []float64{0.1, 0.1}, [][]float64{{1, 0.2}, {0.2, 1}})
	assert.NoError(t, err)
}
