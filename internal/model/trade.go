package model

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/money"
)

// Action is BUY or SELL.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Trade is one proposed order emitted by a rebalance call. Portfolios
// are never mutated; a Trade only describes what the caller could do
// (spec.md §3 Lifecycle).
type Trade struct {
	Ticker  string
	Action  Action
	Shares  decimal.Decimal // > 0, fractional unless constraints forbid it
	Price   money.Value     // unit price at decision time
	Reason  string
}

// Value is shares * price.
func (t Trade) Value() money.Value {
	return t.Price.Mul(t.Shares)
}

// WithShares returns a copy of t with Shares (and therefore Value)
// replaced — used by the constraint pipeline when a trade is
// truncated or scaled.
func (t Trade) WithShares(shares decimal.Decimal) Trade {
	t.Shares = shares
	return t
}
