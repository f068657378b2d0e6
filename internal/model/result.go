package model

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/money"
)

// RebalanceResult is the engine's single output shape (spec.md §3, §6).
type RebalanceResult struct {
	Trades             []Trade
	TotalBuyValue      money.Value
	TotalSellValue     money.Value
	EstimatedCost      money.Value
	FinalAllocations   map[string]decimal.Decimal
	Metrics            map[string]any
	Warnings           []string
}

// AddWarning appends a warning message and mirrors it into the
// Metrics map under "warnings" for the wire shape in spec.md §6.
func (r *RebalanceResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.Metrics == nil {
		r.Metrics = make(map[string]any)
	}
	r.Metrics["warnings"] = r.Warnings
}

// newResult allocates a RebalanceResult with its maps initialized.
func newResult() *RebalanceResult {
	return &RebalanceResult{
		TotalBuyValue:    money.Zero,
		TotalSellValue:   money.Zero,
		EstimatedCost:    money.Zero,
		FinalAllocations: make(map[string]decimal.Decimal),
		Metrics:          make(map[string]any),
	}
}

// NewResult is the exported constructor used by rebalance strategies.
func NewResult() *RebalanceResult { return newResult() }
