package api

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
	"github.com/fintual/rebalancer/internal/rebalance"
)

// AssetDTO mirrors spec.md §6's asset sub-object.
type AssetDTO struct {
	Ticker       string `json:"ticker" binding:"required"`
	Name         string `json:"name"`
	AssetType    string `json:"asset_type" binding:"required,oneof=stock bond etf cash"`
	CurrentPrice string `json:"current_price" binding:"required"`
	Currency     string `json:"currency" binding:"required"`
}

// PositionDTO mirrors spec.md §6's position sub-object.
type PositionDTO struct {
	Ticker           string   `json:"ticker" binding:"required"`
	Shares           string   `json:"shares" binding:"required"`
	TargetAllocation string   `json:"target_allocation" binding:"required"`
	Deposited        string   `json:"deposited"`
	Asset            AssetDTO `json:"asset" binding:"required"`
}

// PortfolioDTO mirrors spec.md §6's portfolio input shape exactly.
type PortfolioDTO struct {
	ID        string        `json:"id" binding:"required"`
	Cash      string        `json:"cash" binding:"required"`
	Positions []PositionDTO `json:"positions" binding:"required,dive"`
}

// CVaRConfigDTO mirrors the CVaR variant of spec.md §6's
// strategy_config tagged union.
type CVaRConfigDTO struct {
	NScenarios      int      `json:"n_scenarios"`
	ConfidenceLevel float64  `json:"confidence_level"`
	RiskAversion    float64  `json:"risk_aversion"`
	Seed            *uint64  `json:"seed"`
}

// RebalanceRequest is the HTTP request body for POST /v1/rebalance.
type RebalanceRequest struct {
	Portfolio         PortfolioDTO   `json:"portfolio" binding:"required"`
	Strategy          string         `json:"strategy" binding:"required,oneof=simple cvar"`
	CVaR              *CVaRConfigDTO `json:"cvar_config,omitempty"`
	ConstraintsPreset string         `json:"constraints_preset,omitempty"`
}

// ToPortfolio converts the wire DTO into the domain model, failing
// with a plain error the handler turns into HTTP 400 (these are
// request-shape problems, not engine errors).
func (d PortfolioDTO) ToPortfolio() (*model.Portfolio, error) {
	positions := make([]model.Position, 0, len(d.Positions))
	for _, p := range d.Positions {
		price, err := money.Parse(p.Asset.CurrentPrice)
		if err != nil {
			return nil, err
		}
		shares, err := money.Parse(p.Shares)
		if err != nil {
			return nil, err
		}
		deposited := money.Zero
		if p.Deposited != "" {
			deposited, err = money.Parse(p.Deposited)
			if err != nil {
				return nil, err
			}
		}
		target, err := decimal.NewFromString(p.TargetAllocation)
		if err != nil {
			return nil, err
		}
		positions = append(positions, model.Position{
			Asset: model.Asset{
				Ticker:       p.Asset.Ticker,
				Name:         p.Asset.Name,
				Class:        model.AssetClass(p.Asset.AssetType),
				CurrentPrice: price,
				Currency:     p.Asset.Currency,
			},
			Shares:           shares,
			TargetAllocation: target,
			Deposited:        deposited,
		})
	}

	cash, err := money.Parse(d.Cash)
	if err != nil {
		return nil, err
	}
	return model.NewPortfolio(d.ID, cash, positions)
}

// StrategyConfig converts the request's strategy fields into a
// rebalance.StrategyConfig.
func (r RebalanceRequest) StrategyConfig() rebalance.StrategyConfig {
	if r.Strategy != "cvar" {
		return rebalance.Simple()
	}
	cfg := rebalance.DefaultCVaRConfig()
	if r.CVaR != nil {
		if r.CVaR.NScenarios > 0 {
			cfg.NScenarios = r.CVaR.NScenarios
		}
		if r.CVaR.ConfidenceLevel > 0 {
			cfg.ConfidenceLevel = r.CVaR.ConfidenceLevel
		}
		if r.CVaR.RiskAversion != 0 {
			cfg.RiskAversion = r.CVaR.RiskAversion
		}
		if r.CVaR.Seed != nil {
			cfg.Seed = *r.CVaR.Seed
		}
	}
	return rebalance.CVaROption(cfg)
}

// Constraints resolves the request's constraints_preset into a
// constraints.TradingConstraints.
func (r RebalanceRequest) Constraints() constraints.TradingConstraints {
	switch r.ConstraintsPreset {
	case "conservative":
		return constraints.Conservative()
	case "moderate":
		return constraints.Moderate()
	case "risky":
		return constraints.Risky()
	default:
		return constraints.Default()
	}
}

// TradeDTO mirrors spec.md §6's trade wire shape.
type TradeDTO struct {
	Ticker       string `json:"ticker"`
	Action       string `json:"action"`
	Shares       string `json:"shares"`
	CurrentPrice string `json:"current_price"`
	Value        string `json:"value"`
	Reason       string `json:"reason"`
}

// RebalanceResponse mirrors spec.md §6's RebalanceResult wire shape.
type RebalanceResponse struct {
	Trades           []TradeDTO        `json:"trades"`
	TotalBuyValue    string            `json:"total_buy_value"`
	TotalSellValue   string            `json:"total_sell_value"`
	EstimatedCost    string            `json:"estimated_cost"`
	FinalAllocations map[string]string `json:"final_allocations"`
	Metrics          map[string]any    `json:"metrics"`
}

// FromResult converts a domain RebalanceResult into its wire shape.
func FromResult(r *model.RebalanceResult) RebalanceResponse {
	trades := make([]TradeDTO, 0, len(r.Trades))
	for _, t := range r.Trades {
		trades = append(trades, TradeDTO{
			Ticker:       t.Ticker,
			Action:       string(t.Action),
			Shares:       t.Shares.StringFixed(8),
			CurrentPrice: t.Price.String(),
			Value:        t.Value().String(),
			Reason:       t.Reason,
		})
	}

	allocations := make(map[string]string, len(r.FinalAllocations))
	for ticker, w := range r.FinalAllocations {
		allocations[ticker] = w.StringFixed(3)
	}

	return RebalanceResponse{
		Trades:           trades,
		TotalBuyValue:    r.TotalBuyValue.String(),
		TotalSellValue:   r.TotalSellValue.String(),
		EstimatedCost:    r.EstimatedCost.String(),
		FinalAllocations: allocations,
		Metrics:          r.Metrics,
	}
}
