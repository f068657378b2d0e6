package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/money"
)

// Position relates one Asset to one Portfolio (spec.md §3).
type Position struct {
	Asset             Asset
	Shares            money.Value     // nonnegative, fractional allowed
	TargetAllocation  decimal.Decimal // in [0, 1]
	Deposited         money.Value     // cumulative net deposits, >= 0
}

// MarketValue is shares * current_price.
func (p Position) MarketValue() money.Value {
	return p.Shares.Mul(p.Asset.CurrentPrice.Decimal())
}

// CurrentAllocation is market_value / portfolio.total_value, or zero
// if the portfolio is empty.
func (p Position) CurrentAllocation(totalValue money.Value) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return p.MarketValue().DivValue(totalValue)
}

// Validate enforces P3 (no negative shares) and the target-allocation
// range at the level of a single position; Σ target ≤ 1 is a
// Portfolio-level invariant (P2), checked in Portfolio.Validate.
func (p Position) Validate() error {
	if err := p.Asset.Validate(); err != nil {
		return err
	}
	if p.Shares.IsNegative() {
		return fmt.Errorf("model: position %s shares must be >= 0", p.Asset.Ticker)
	}
	if p.Deposited.IsNegative() {
		return fmt.Errorf("model: position %s deposited must be >= 0", p.Asset.Ticker)
	}
	if p.TargetAllocation.IsNegative() {
		return fmt.Errorf("model: position %s target_allocation must be >= 0", p.Asset.Ticker)
	}
	if p.TargetAllocation.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("model: position %s target_allocation must be <= 1", p.Asset.Ticker)
	}
	return nil
}
