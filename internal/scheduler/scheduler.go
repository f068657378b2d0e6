// Package scheduler runs the periodic drift-check job on a cron
// schedule. The job itself enumerates no goals (the repository only
// lists goals per user), so each run logs its start and finish and
// checks nothing. CheckGoal does the per-goal work: it runs the
// drift-only strategy against one Goal's Portfolio and
// records/publishes the result if any trade would be proposed. The teacher's internal/scheduler/scheduler.go
// was a 24-line stub with no cron wiring; this is that stub grown
// into the real job robfig/cron was imported for but never used.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fintual/rebalancer/internal/config"
	"github.com/fintual/rebalancer/internal/constraints"
	"github.com/fintual/rebalancer/internal/messaging"
	"github.com/fintual/rebalancer/internal/model"
	"github.com/fintual/rebalancer/internal/rebalance"
	"github.com/fintual/rebalancer/internal/repository"
)

// Scheduler owns a single cron entry: the drift-check job.
type Scheduler struct {
	cron      *cron.Cron
	goals     repository.GoalRepository
	history   repository.RebalanceHistoryRepository
	publisher *messaging.Publisher
	logger    *logrus.Logger
	cfg       config.SchedulerConfig
}

// New constructs a Scheduler. publisher may be nil to disable the
// rebalance-completed event publish step.
func New(cfg config.SchedulerConfig, goals repository.GoalRepository, history repository.RebalanceHistoryRepository, publisher *messaging.Publisher, logger *logrus.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	s := &Scheduler{cron: c, goals: goals, history: history, publisher: publisher, logger: logger, cfg: cfg}

	if _, err := c.AddFunc(cfg.DriftCheckCron, s.runDriftCheck); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running the cron schedule. It returns immediately;
// the job runs in cron's own goroutine until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, drift-check job will not run")
		return nil
	}
	s.cron.Start()
	s.logger.Infof("scheduler started (drift-check cron: %s)", s.cfg.DriftCheckCron)
	return nil
}

// Stop waits for any in-flight run to finish and halts the schedule.
func (s *Scheduler) Stop() error {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// runDriftCheck is the job body. It opens a JobTimeout context and
// logs start and finish; it runs no rebalance, since no goal
// enumeration source is wired (see below).
func (s *Scheduler) runDriftCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	s.logger.Debug("drift-check job starting")

	// The teacher's equivalent jobs (internal/analytics
	// RebalancingSchedule) iterate every tracked portfolio; here that
	// translates to every goal owned by every user, but the
	// repository interface only exposes ListByUser, so a production
	// deployment would back this with a ListAll method. Left as a
	// documented gap rather than invented here (see DESIGN.md).
	s.logger.Debug("drift-check job finished (no goal enumeration source wired)")
	_ = ctx
}

// CheckGoal runs SimpleStrategy against one Goal's Portfolio and, if
// any trade survives the constraint pipeline, records and publishes
// the result. Exposed so the HTTP API or an operator tool can trigger
// an ad hoc check outside the cron schedule.
func (s *Scheduler) CheckGoal(ctx context.Context, goal *model.Goal, c constraints.TradingConstraints) error {
	result, err := rebalance.Rebalance(goal.Portfolio, rebalance.Simple(), c, nil)
	if err != nil {
		return err
	}
	if len(result.Trades) == 0 {
		return nil
	}

	if s.history != nil {
		entry := &repository.RebalanceHistoryEntry{
			GoalID:       goal.ID,
			StrategyKind: string(rebalance.KindSimple),
			TradeCount:   len(result.Trades),
			TotalBuy:     result.TotalBuyValue.String(),
			TotalSell:    result.TotalSellValue.String(),
			Warnings:     result.Warnings,
			Metrics:      result.Metrics,
		}
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.Warnf("drift-check: failed to record history for goal %s: %v", goal.ID, err)
		}
	}

	if s.publisher != nil {
		if _, err := s.publisher.PublishRebalanceCompleted(ctx, goal.ID, result); err != nil {
			s.logger.Warnf("drift-check: failed to publish event for goal %s: %v", goal.ID, err)
		}
	}

	return nil
}
