package repository

import (
	"time"

	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/money"
	"github.com/shopspring/decimal"
)

// AssetDocument mirrors spec.md §6's asset sub-object, bson/json tags
// matching the wire shape exactly.
type AssetDocument struct {
	Ticker       string `bson:"ticker" json:"ticker"`
	Name         string `bson:"name" json:"name"`
	AssetType    string `bson:"asset_type" json:"asset_type"`
	CurrentPrice string `bson:"current_price" json:"current_price"`
	Currency     string `bson:"currency" json:"currency"`
}

// PositionDocument mirrors spec.md §6's position sub-object.
type PositionDocument struct {
	Ticker           string        `bson:"ticker" json:"ticker"`
	Shares           string        `bson:"shares" json:"shares"`
	TargetAllocation string        `bson:"target_allocation" json:"target_allocation"`
	Deposited        string        `bson:"deposited" json:"deposited"`
	Asset            AssetDocument `bson:"asset" json:"asset"`
}

// PortfolioDocument mirrors spec.md §6's portfolio input shape.
type PortfolioDocument struct {
	ID        string             `bson:"id" json:"id"`
	Cash      string             `bson:"cash" json:"cash"`
	Positions []PositionDocument `bson:"positions" json:"positions"`
}

// GoalDocument is the persisted shape of a Goal.
type GoalDocument struct {
	ID           string            `bson:"_id" json:"id"`
	UserID       string            `bson:"user_id" json:"user_id"`
	Name         string            `bson:"name" json:"name"`
	Type         string            `bson:"type" json:"type"`
	Risk         string            `bson:"risk" json:"risk"`
	TargetAmount string            `bson:"target_amount,omitempty" json:"target_amount,omitempty"`
	Portfolio    PortfolioDocument `bson:"portfolio" json:"portfolio"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at" json:"updated_at"`
}

// RebalanceHistoryEntry records one past rebalance call's outcome.
type RebalanceHistoryEntry struct {
	GoalID       string         `bson:"goal_id" json:"goal_id"`
	StrategyKind string         `bson:"strategy_kind" json:"strategy_kind"`
	TradeCount   int            `bson:"trade_count" json:"trade_count"`
	TotalBuy     string         `bson:"total_buy_value" json:"total_buy_value"`
	TotalSell    string         `bson:"total_sell_value" json:"total_sell_value"`
	Warnings     []string       `bson:"warnings" json:"warnings"`
	Metrics      map[string]any `bson:"metrics" json:"metrics"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
}

// ToModel converts a GoalDocument into the domain model.Goal used by
// the rebalance engine.
func (d *GoalDocument) ToModel() (*model.Goal, error) {
	positions := make([]model.Position, 0, len(d.Portfolio.Positions))
	for _, p := range d.Portfolio.Positions {
		price, err := money.Parse(p.Asset.CurrentPrice)
		if err != nil {
			return nil, err
		}
		shares, err := money.Parse(p.Shares)
		if err != nil {
			return nil, err
		}
		deposited, err := money.Parse(p.Deposited)
		if err != nil {
			return nil, err
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

	cash, err := money.Parse(d.Portfolio.Cash)
	if err != nil {
		return nil, err
	}
	portfolio, err := model.NewPortfolio(d.Portfolio.ID, cash, positions)
	if err != nil {
		return nil, err
	}

	var targetAmount *money.Value
	if d.TargetAmount != "" {
		ta, err := money.Parse(d.TargetAmount)
		if err != nil {
			return nil, err
		}
		targetAmount = &ta
	}

	return &model.Goal{
		ID:           d.ID,
		Name:         d.Name,
		Type:         model.GoalType(d.Type),
		Risk:         model.RiskProfile(d.Risk),
		Portfolio:    portfolio,
		TargetAmount: targetAmount,
	}, nil
}

// FromModel builds the persisted document shape from a domain Goal.
func FromModel(userID string, g *model.Goal) *GoalDocument {
	positions := make([]PositionDocument, 0, len(g.Portfolio.Positions()))
	for _, p := range g.Portfolio.Positions() {
		positions = append(positions, PositionDocument{
			Ticker:           p.Asset.Ticker,
			Shares:           p.Shares.String(),
			TargetAllocation: p.TargetAllocation.StringFixed(6),
			Deposited:        p.Deposited.String(),
			Asset: AssetDocument{
				Ticker:       p.Asset.Ticker,
				Name:         p.Asset.Name,
				AssetType:    string(p.Asset.Class),
				CurrentPrice: p.Asset.CurrentPrice.String(),
				Currency:     p.Asset.Currency,
			},
		})
	}

	doc := &GoalDocument{
		ID:     g.ID,
		UserID: userID,
		Name:   g.Name,
		Type:   string(g.Type),
		Risk:   string(g.Risk),
		Portfolio: PortfolioDocument{
			ID:        g.Portfolio.ID,
			Cash:      g.Portfolio.Cash.String(),
			Positions: positions,
		},
	}
	if g.TargetAmount != nil {
		doc.TargetAmount = g.TargetAmount.String()
	}
	return doc
}
