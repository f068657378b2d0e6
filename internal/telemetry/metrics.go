// Package telemetry exposes Prometheus counters and histograms for
// rebalance calls, grounded on the teacher's use of
// prometheus/client_golang throughout its service layer.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RebalanceCalls counts rebalance() invocations by strategy kind and
// outcome ("ok", "warning", "error").
var RebalanceCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rebalancer",
	Name:      "rebalance_calls_total",
	Help:      "Total rebalance() calls by strategy kind and outcome.",
}, []string{"strategy", "outcome"})

// OptimizerIterations records how many iterations the CVaR optimizer
// took to converge (or to give up).
var OptimizerIterations = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rebalancer",
	Name:      "optimizer_iterations",
	Help:      "Iteration count reported by the CVaR strategy's optimizer per call.",
	Buckets:   []float64{1, 5, 10, 25, 50, 75, 100},
})

// TradesEmitted counts trades emitted by action (BUY/SELL) after the
// constraint pipeline.
var TradesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rebalancer",
	Name:      "trades_emitted_total",
	Help:      "Total trades emitted by a rebalance call, after the constraint pipeline, by action.",
}, []string{"action"})

// RebalanceDuration observes wall-clock time spent inside a single
// rebalance() call.
var RebalanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rebalancer",
	Name:      "rebalance_duration_seconds",
	Help:      "Wall-clock duration of a rebalance() call by strategy kind.",
	Buckets:   prometheus.DefBuckets,
}, []string{"strategy"})
