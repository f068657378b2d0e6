// Package optimize provides the shared constrained minimizer used by
// rebalance strategies that need to search a weight simplex rather
// than compute it in closed form (spec.md §4.10). It wraps
// gonum.org/v1/gonum/optimize with a penalty-method objective so an
// unconstrained local solver can be used for a constrained problem,
// grounded on aristath-sentinel's internal/modules/optimization
// mean-variance optimizer (NelderMead primary, BFGS fallback, status
// checked against optimize.Success).
package optimize

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// MaxIterations caps the solver's major iterations (spec.md §4.10
// step 3). Minimize does not pass Tolerance to the solver: convergence
// is judged by gonum's default convergence test.
const (
	MaxIterations = 100
	Tolerance     = 1e-6
)

// penaltyWeight scales the constraint-violation terms added to the
// raw objective. Large relative to typical CVaR/tracking-error
// magnitudes so a feasible point always beats an infeasible one.
const penaltyWeight = 1000.0

// Objective is the function being minimized over a weight vector.
type Objective func(w []float64) float64

// Result carries the outcome of a Minimize call.
type Result struct {
	Weights    []float64
	Iterations int
	Converged  bool
}

// Minimize finds w minimizing objective subject to Σw=1, w≥0, and
// w≤maxPosition (if maxPosition is non-nil), starting the search at
// initial. It always returns a feasible Weights vector: if the
// underlying solver fails to converge, Converged is false and the
// caller (CVaRRebalanceStrategy) is expected to fall back to target
// weights per spec.md §4.10 step 4, but Weights is still projected
// onto the simplex so it is never garbage.
func Minimize(initial []float64, objective Objective, maxPosition *float64) Result {
	n := len(initial)
	penalized := func(w []float64) float64 {
		return objective(w) + penalty(w, maxPosition)
	}

	problem := optimize.Problem{
		Func: penalized,
		Grad: func(grad, w []float64) {
			fd.Gradient(grad, penalized, w, nil)
		},
	}

	settings := &optimize.Settings{
		MajorIterations: MaxIterations,
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), initial...), settings, &optimize.NelderMead{})
	converged := err == nil && result != nil && result.Status == optimize.Success

	if !converged {
		bfgsResult, bfgsErr := optimize.Minimize(problem, append([]float64(nil), initial...), settings, &optimize.BFGS{})
		if bfgsErr == nil && bfgsResult != nil && bfgsResult.Status == optimize.Success {
			result = bfgsResult
			converged = true
		}
	}

	var weights []float64
	iterations := 0
	if result != nil {
		weights = result.X
		iterations = result.Stats.MajorIterations
	}
	if weights == nil {
		weights = initial
	}

	return Result{
		Weights:    project(weights, n, maxPosition),
		Iterations: iterations,
		Converged:  converged,
	}
}

// penalty is the quadratic penalty for violating Σw=1, w≥0, and the
// optional per-asset cap.
func penalty(w []float64, maxPosition *float64) float64 {
	sum := 0.0
	p := 0.0
	for _, x := range w {
		sum += x
		if x < 0 {
			p += penaltyWeight * x * x
		}
		if maxPosition != nil && x > *maxPosition {
			over := x - *maxPosition
			p += penaltyWeight * over * over
		}
	}
	diff := sum - 1
	p += penaltyWeight * diff * diff
	return p
}

// project clips w onto the feasible simplex: negatives to zero, caps
// applied, then renormalized to sum to 1. This is the same
// post-processing a caller would otherwise have to duplicate, so it
// lives here rather than in each strategy.
func project(w []float64, n int, maxPosition *float64) []float64 {
	out := make([]float64, n)
	sum := 0.0
	for i := 0; i < n && i < len(w); i++ {
		v := w[i]
		if v < 0 {
			v = 0
		}
		if maxPosition != nil && v > *maxPosition {
			v = *maxPosition
		}
		out[i] = v
		sum += v
	}
	if sum <= 0 {
		uniform := 1.0 / float64(n)
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
