package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fintual/rebalancer/internal/estimator"
)

// estimatorEntry is the JSON shape stored per ticker set. Tickers
// records the canonical (sorted) ordering Mu/Sigma were computed in,
// so a cache hit can be permuted back into whatever order the caller
// actually asked for.
type estimatorEntry struct {
	Tickers []string    `json:"tickers"`
	Mu      []float64   `json:"mu"`
	Sigma   [][]float64 `json:"sigma"`
}

// EstimatorCache decorates an estimator.Estimator with a Redis-backed
// cache keyed by the sorted ticker set, so repeated rebalance calls
// against the same Portfolio within the TTL window skip
// re-estimation. Implements estimator.Estimator itself so it can be
// dropped in wherever a strategy expects one.
type EstimatorCache struct {
	client *Client
	inner  estimator.Estimator
	ttl    time.Duration
}

// NewEstimatorCache wraps inner with a cache using client and ttl.
func NewEstimatorCache(client *Client, inner estimator.Estimator, ttl time.Duration) *EstimatorCache {
	return &EstimatorCache{client: client, inner: inner, ttl: ttl}
}

func (c *EstimatorCache) Estimate(tickers []string) ([]float64, [][]float64, error) {
	canonical := append([]string(nil), tickers...)
	sort.Strings(canonical)
	key := "estimator:" + strings.Join(canonical, ",")
	ctx := context.Background()

	var entry estimatorEntry
	if err := c.client.Get(ctx, key, &entry); err == nil {
		mu, sigma := permute(entry.Tickers, entry.Mu, entry.Sigma, tickers)
		return mu, sigma, nil
	}

	canonicalMu, canonicalSigma, err := c.inner.Estimate(canonical)
	if err != nil {
		return nil, nil, err
	}

	_ = c.client.Set(ctx, key, estimatorEntry{Tickers: canonical, Mu: canonicalMu, Sigma: canonicalSigma}, c.ttl)
	mu, sigma := permute(canonical, canonicalMu, canonicalSigma, tickers)
	return mu, sigma, nil
}

// permute reorders a (mu, sigma) pair computed in the `from` ticker
// ordering into the `to` ordering the caller actually needs. The
// Estimator contract is order-dependent (spec.md §4.6), so a cache
// entry computed once in canonical (sorted) order must always be
// permuted back before being handed to a caller whose Portfolio uses
// a different insertion order.
func permute(from []string, mu []float64, sigma [][]float64, to []string) ([]float64, [][]float64) {
	pos := make(map[string]int, len(from))
	for i, t := range from {
		pos[t] = i
	}

	n := len(to)
	outMu := make([]float64, n)
	outSigma := make([][]float64, n)
	for i, ti := range to {
		si := pos[ti]
		outMu[i] = mu[si]
		row := make([]float64, n)
		for j, tj := range to {
			sj := pos[tj]
			row[j] = sigma[si][sj]
		}
		outSigma[i] = row
	}
	return outMu, outSigma
}
