package model

import (
	"github.com/shopspring/decimal"

	"github.com/fintual/rebalancer/internal/money"
)

// GoalType tags the purpose of a Goal.
type GoalType string

const (
	GoalRetirement GoalType = "retirement"
	GoalEducation  GoalType = "education"
	GoalHouse      GoalType = "house"
	GoalVacation   GoalType = "vacation"
	GoalGeneral    GoalType = "general"
)

// RiskProfile tags the user's declared risk tolerance for a Goal.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskRisky        RiskProfile = "risky"
)

// Goal is the user-facing wrapper around exactly one Portfolio
// (spec.md §3). Derived metrics use Fintual nomenclature: Balance,
// Depositado Neto, Ganado.
type Goal struct {
	ID          string
	Name        string
	Type        GoalType
	Risk        RiskProfile
	Portfolio   *Portfolio
	TargetAmount *money.Value // nil if unset
}

// Balance is the Goal's current total value.
func (g *Goal) Balance() money.Value {
	return g.Portfolio.TotalValue()
}

// DepositadoNeto is cumulative net deposits: cash plus the deposited
// total across all positions.
func (g *Goal) DepositadoNeto() money.Value {
	total := g.Portfolio.Cash
	for _, pos := range g.Portfolio.Positions() {
		total = total.Add(pos.Deposited)
	}
	return total
}

// Ganado is balance minus depositado neto — what the goal has earned.
func (g *Goal) Ganado() money.Value {
	return g.Balance().Sub(g.DepositadoNeto())
}

// ProgressPercentage is 100 * balance / target_amount. The second
// return value is false if no target_amount was set, per spec.md §3
// ("undefined if no target").
func (g *Goal) ProgressPercentage() (decimal.Decimal, bool) {
	if g.TargetAmount == nil || g.TargetAmount.IsZero() {
		return decimal.Zero, false
	}
	pct := g.Balance().DivValue(*g.TargetAmount).Mul(decimal.NewFromInt(100))
	return pct, true
}
