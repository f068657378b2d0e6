// Package constraints defines the TradingConstraints configuration
// (spec.md §4.3) and its named presets.
package constraints

import "github.com/shopspring/decimal"

// TradingConstraints is the closed set of trading-constraint options
// from spec.md §4.3.
type TradingConstraints struct {
	MinTradeValue          decimal.Decimal // money scalar, >= 0
	RebalanceThreshold      decimal.Decimal // fraction in [0,1]
	MaxTurnover             *decimal.Decimal // fraction in [0,1], nil = uncapped
	MinLiquidity            decimal.Decimal // fraction in [0,1]
	AllowFractionalShares   bool
	MaxPositionSize         *decimal.Decimal // fraction in [0,1], nil = uncapped
	TransactionCostBps      decimal.Decimal // fraction >= 0
}

// Default returns the defaults from spec.md §4.3's option table.
func Default() TradingConstraints {
	return TradingConstraints{
		MinTradeValue:         decimal.NewFromInt(10),
		RebalanceThreshold:    decimal.NewFromFloat(0.02),
		MaxTurnover:           nil,
		MinLiquidity:          decimal.Zero,
		AllowFractionalShares: true,
		MaxPositionSize:       nil,
		TransactionCostBps:    decimal.NewFromFloat(0.0025),
	}
}

// Conservative is the named preset from spec.md §4.3.
func Conservative() TradingConstraints {
	c := Default()
	c.MinLiquidity = decimal.NewFromFloat(0.50)
	c.RebalanceThreshold = decimal.NewFromFloat(0.01)
	return c
}

// Moderate is the named preset from spec.md §4.3.
func Moderate() TradingConstraints {
	c := Default()
	c.MinLiquidity = decimal.NewFromFloat(0.10)
	c.RebalanceThreshold = decimal.NewFromFloat(0.02)
	return c
}

// Risky is the named preset from spec.md §4.3.
func Risky() TradingConstraints {
	c := Default()
	c.MinLiquidity = decimal.NewFromFloat(0.05)
	c.RebalanceThreshold = decimal.NewFromFloat(0.05)
	return c
}
