package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/arnaubm/noise-trader/internal/broker"
	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
	"github.com/arnaubm/noise-trader/internal/storage"
	"github.com/arnaubm/noise-trader/internal/strategy"
	"github.com/arnaubm/noise-trader/internal/telegram"
)

// Scheduler drives the strategy: one cycle per interval, strictly
// sequential, with status persisted around every cycle. The strategy
// never runs concurrently with itself.
type Scheduler struct {
	broker   *broker.BrokerClient
	strategy *strategy.Noise
	repo     *storage.Repository
	notifier *telegram.Notifier
	config   *config.Config
	logger   *logger.Logger
	loc      *time.Location
}

func NewScheduler(
	bc *broker.BrokerClient,
	noise *strategy.Noise,
	repo *storage.Repository,
	notifier *telegram.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		broker:   bc,
		strategy: noise,
		repo:     repo,
		notifier: notifier,
		config:   cfg,
		logger:   log,
		loc:      cfg.MOEXLocation(),
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	interval := s.config.TradingInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", interval.String())

	// Run immediately on start
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scheduler cycle", "panic", fmt.Sprint(r))
			s.notifier.NotifyError("scheduler panic", fmt.Errorf("%v", r))
		}
	}()

	if !s.isWithinTradingHours() {
		s.logger.Info("outside trading hours, skipping cycle")
		return
	}

	s.logger.Info("starting strategy cycle")

	balances, err := s.broker.Balances(ctx)
	if err != nil {
		s.logger.Error("get balances", "error", err)
		s.saveCycleLog(nil, err)
		return
	}

	status, err := s.repo.LoadStatus(balances.Quote.Free)
	if err != nil {
		s.logger.Error("load status", "error", err)
		s.saveCycleLog(nil, err)
		return
	}

	if err := s.strategy.Next(ctx, status); err != nil {
		// aborted cycle, status untouched: log it and wait for the next tick
		s.logger.Error("strategy cycle aborted", "error", err)
		s.saveCycleLog(status, err)
		return
	}

	if err := s.repo.SaveStatus(status); err != nil {
		s.logger.Error("save status", "error", err)
		s.notifier.NotifyError("save status", err)
	}

	s.saveCycleLog(status, nil)
	s.saveBudgetSnapshot(status)

	s.logger.Info("strategy cycle completed",
		"open_trades", len(status.ActiveTrades), "active_orders", len(status.ActiveOrders))
}

func (s *Scheduler) isWithinTradingHours() bool {
	now := time.Now().In(s.loc)

	// Skip weekends
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}

	hour := now.Hour()
	minute := now.Minute()
	totalMinutes := hour*60 + minute

	// MOEX main session: 10:00 - 18:50 MSK
	return totalMinutes >= 600 && totalMinutes <= 1130
}

func (s *Scheduler) saveCycleLog(status *strategy.Status, err error) {
	log := &storage.CycleLog{}
	if status != nil {
		log.TradesCount = len(status.ActiveTrades)
		log.OrdersCount = len(status.ActiveOrders)
		log.BudgetLeft = s.strategy.BudgetLeft(status)
	}
	if err != nil {
		log.Error = err.Error()
	}
	if dbErr := s.repo.SaveCycleLog(log); dbErr != nil {
		s.logger.Error("save cycle log", "error", dbErr)
	}
}

func (s *Scheduler) saveBudgetSnapshot(status *strategy.Status) {
	snapshot := &storage.BudgetSnapshot{
		FreeBudget: status.Budget.Free,
		BudgetLeft: s.strategy.BudgetLeft(status),
		SpentDay:   s.strategy.SpentToday(status),
		SpentWeek:  s.strategy.SpentThisWeek(status),
		OpenTrades: len(status.ActiveTrades),
	}
	if err := s.repo.SaveBudgetSnapshot(snapshot); err != nil {
		s.logger.Error("save budget snapshot", "error", err)
	}
}
