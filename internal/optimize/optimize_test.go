package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinimizeConvexObjective(t *testing.T) {
	// Objective favors concentrating weight in asset 0.
	objective := func(w []float64) float64 {
		diff := w[0] - 1
		return diff*diff + w[1]*w[1]
	}
	initial := []float64{0.5, 0.5}
	result := Minimize(initial, objective, nil)

	assert.Len(t, result.Weights, 2)
	sum := 0.0
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, result.Weights[0], result.Weights[1])
}

func TestMinimizeRespectsMaxPositionCap(t *testing.T) {
	maxPos := 0.4
	objective := func(w []float64) float64 {
		diff := w[0] - 1
		return diff * diff
	}
	result := Minimize([]float64{0.5, 0.5}, objective, &maxPos)

	for _, w := range result.Weights {
		assert.LessOrEqual(t, w, maxPos+1e-6)
	}
	sum := 0.0
	for _, w := range result.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestMinimizeAlwaysReturnsFeasibleWeightsEvenWhenNonConvergent(t *testing.T) {
	// A pathological, discontinuous objective that no local solver
	// should be expected to converge on in MaxIterations.
	objective := func(w []float64) float64 {
		if w[0] > 0.3 {
			return 1e9
		}
		return -1e9
	}
	result := Minimize([]float64{0.5, 0.5}, objective, nil)
	sum := 0.0
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}
