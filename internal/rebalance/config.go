package rebalance

import (
	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/estimator"
	"github.com/fintual/rebalancer/internal/model"
)

// Kind tags which strategy a StrategyConfig selects (spec.md §6's
// tagged union: Simple | CVaR{...}).
type Kind string

const (
	KindSimple Kind = "simple"
	KindCVaR   Kind = "cvar"
)

// StrategyConfig is the tagged union the core's single entry point
// accepts. Only the field matching Kind is read.
type StrategyConfig struct {
	Kind Kind
	CVaR CVaRConfig
}

// Simple returns a StrategyConfig selecting SimpleStrategy.
func Simple() StrategyConfig {
	return StrategyConfig{Kind: KindSimple}
}

// CVaROption selects CVaRStrategy with the given configuration.
func CVaROption(cfg CVaRConfig) StrategyConfig {
	return StrategyConfig{Kind: KindCVaR, CVaR: cfg.withDefaults()}
}

// Rebalance is the engine's single operation (spec.md §6):
// rebalance(portfolio, strategy_config, constraints) -> RebalanceResult.
// estimatorOverride may be nil to use the synthetic default.
func Rebalance(portfolio *model.Portfolio, cfg StrategyConfig, c constraints.TradingConstraints, estimatorOverride estimator.Estimator) (*model.RebalanceResult, error) {
	var strategy Strategy
	switch cfg.Kind {
	case KindCVaR:
		strategy = NewCVaR(estimatorOverride, cfg.CVaR)
	default:
		strategy = NewSimple()
	}
	return strategy.Rebalance(portfolio, c)
}
