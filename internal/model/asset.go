package model

import (
	"fmt"

	"github.com/fintual/rebalancer/internal/money"
)

// AssetClass tags the broad category an Asset belongs to.
type AssetClass string

const (
	AssetClassStock AssetClass = "stock"
	AssetClassBond  AssetClass = "bond"
	AssetClassETF   AssetClass = "etf"
	AssetClassCash  AssetClass = "cash"
)

// Asset is an immutable descriptor. Identity within a Portfolio is by
// Ticker (spec.md §3).
type Asset struct {
	Ticker       string
	Name         string
	Class        AssetClass
	CurrentPrice money.Value
	Currency     string
}

// Validate checks the invariants spec.md §3 places on an Asset in
// isolation (nonempty ticker, positive price).
func (a Asset) Validate() error {
	if a.Ticker == "" {
		return fmt.Errorf("model: asset ticker must not be empty")
	}
	if !a.CurrentPrice.IsPositive() {
		return fmt.Errorf("model: asset %s current price must be > 0", a.Ticker)
	}
	return nil
}
