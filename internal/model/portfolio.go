package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/money"
)

// targetSumEpsilon tolerates floating point noise when checking
// Σ target_allocation ≤ 1 (spec.md §3 P2, §4.8 InvalidTargets).
var targetSumEpsilon = decimal.NewFromFloat(1e-9)

// Portfolio owns a set of Positions keyed by ticker plus cash
// (spec.md §3). The slice order is the ticker ordering used by every
// vector produced for a rebalance call (spec.md §9 "Ordering is
// contract") and is fixed at construction time.
type Portfolio struct {
	ID        string
	Cash      money.Value
	positions []Position
	index     map[string]int
}

// NewPortfolio builds a Portfolio, enforcing P1 (unique tickers) and
// P3 (no negative cash/shares). Position order is preserved exactly as
// given — callers that need a different ordering must sort before
// calling NewPortfolio.
func NewPortfolio(id string, cash money.Value, positions []Position) (*Portfolio, error) {
	if cash.IsNegative() {
		return nil, fmt.Errorf("model: portfolio cash must be >= 0")
	}
	index := make(map[string]int, len(positions))
	for i, p := range positions {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[p.Asset.Ticker]; dup {
			return nil, fmt.Errorf("model: duplicate ticker %q in portfolio", p.Asset.Ticker)
		}
		index[p.Asset.Ticker] = i
	}
	return &Portfolio{ID: id, Cash: cash, positions: append([]Position(nil), positions...), index: index}, nil
}

// Positions returns the ticker-ordered position slice. The returned
// slice must not be mutated by callers; a rebalance call never
// mutates the Portfolio it is given (spec.md §3 Lifecycle).
func (p *Portfolio) Positions() []Position { return p.positions }

// Tickers returns the fixed ticker ordering for this Portfolio.
func (p *Portfolio) Tickers() []string {
	out := make([]string, len(p.positions))
	for i, pos := range p.positions {
		out[i] = pos.Asset.Ticker
	}
	return out
}

// Position looks up a position by ticker.
func (p *Portfolio) Position(ticker string) (Position, bool) {
	i, ok := p.index[ticker]
	if !ok {
		return Position{}, false
	}
	return p.positions[i], true
}

// InvestedValue is Σ market_value, excluding cash.
func (p *Portfolio) InvestedValue() money.Value {
	total := money.Zero
	for _, pos := range p.positions {
		total = total.Add(pos.MarketValue())
	}
	return total
}

// TotalValue is cash + Σ market_value.
func (p *Portfolio) TotalValue() money.Value {
	return p.Cash.Add(p.InvestedValue())
}

// CurrentWeights returns the invested-value-normalized current weight
// of each position, in ticker order. Zero vector if nothing is
// invested (spec.md §4.2).
func (p *Portfolio) CurrentWeights() []float64 {
	invested := p.InvestedValue()
	out := make([]float64, len(p.positions))
	if invested.IsZero() {
		return out
	}
	for i, pos := range p.positions {
		out[i] = pos.MarketValue().DivValue(invested).InexactFloat64()
	}
	return out
}

// TargetWeights returns each position's raw target_allocation, in
// ticker order. Unlike CurrentWeights this vector is deliberately
// *not* renormalized to sum to 1: the gap between Σ target_allocation
// and 1 is the target cash fraction (spec.md §3 P2), and preserving
// it is what lets drift() pull the portfolio toward that cash target
// instead of just toward relative weights among existing positions.
func (p *Portfolio) TargetWeights() []float64 {
	out := make([]float64, len(p.positions))
	for i, pos := range p.positions {
		out[i] = pos.TargetAllocation.InexactFloat64()
	}
	return out
}

// Validate enforces P1 (checked at construction), P2 (Σ target ≤
// 1+ε), and P3 (checked per-position at construction). Returns
// ErrEmptyPortfolio / ErrInvalidTargets per spec.md §4.8.
func (p *Portfolio) Validate() error {
	if len(p.positions) == 0 {
		return NewError(KindEmptyPortfolio, "portfolio %s has no positions", p.ID)
	}
	sum := decimal.Zero
	for _, pos := range p.positions {
		if pos.TargetAllocation.IsNegative() {
			return NewError(KindInvalidTargets, "position %s has negative target_allocation", pos.Asset.Ticker)
		}
		sum = sum.Add(pos.TargetAllocation)
	}
	if sum.GreaterThan(decimal.NewFromInt(1).Add(targetSumEpsilon)) {
		return NewError(KindInvalidTargets, "sum of target_allocation %s exceeds 1", sum.String())
	}
	return nil
}
