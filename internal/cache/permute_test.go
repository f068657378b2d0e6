package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermuteReordersMuAndSigma(t *testing.T) {
	from := []string{"AAA", "BBB", "CCC"}
	mu := []float64{0.08, 0.10, 0.12}
	sigma := [][]float64{
		{0.04, 0.01, 0.02},
		{0.01, 0.05, 0.03},
		{0.02, 0.03, 0.06},
	}
	to := []string{"CCC", "AAA", "BBB"}

	outMu, outSigma := permute(from, mu, sigma, to)

	assert.Equal(t, []float64{0.12, 0.08, 0.10}, outMu)
	// sigma[CCC][AAA] must equal the original sigma[CCC][AAA] = 0.02
	assert.InDelta(t, 0.02, outSigma[0][1], 1e-12)
	// diagonal entries must still be each ticker's own variance
	assert.InDelta(t, 0.06, outSigma[0][0], 1e-12)
	assert.InDelta(t, 0.04, outSigma[1][1], 1e-12)
	assert.InDelta(t, 0.05, outSigma[2][2], 1e-12)
}

func TestPermuteIdentityOrderingIsNoOp(t *testing.T) {
	from := []string{"A", "B"}
	mu := []float64{0.1, 0.2}
	sigma := [][]float64{{1, 0}, {0, 1}}

	outMu, outSigma := permute(from, mu, sigma, from)
	assert.Equal(t, mu, outMu)
	assert.Equal(t, sigma, outSigma)
}
