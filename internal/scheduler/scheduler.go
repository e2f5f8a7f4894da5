package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jamespassby/retail-dashboard-final/internal/dataset"
	"github.com/jamespassby/retail-dashboard-final/internal/store"
	"github.com/jamespassby/retail-dashboard-final/pkg/alert"
	"github.com/jamespassby/retail-dashboard-final/pkg/rank"
	"go.uber.org/zap"
)

// Options configures a Scheduler.
type Options struct {
	DatasetPath   string
	Interval      time.Duration
	MinRankChange int
}

// Result summarizes one import run.
type Result struct {
	Import store.Import
	Rows   []rank.Row
	Movers []rank.Row
	// Alerted is true when a notification went out to every notifier.
	Alerted bool
}

// Scheduler periodically imports the dataset, snapshots the ranking and
// alerts on large rank movements.
type Scheduler struct {
	store  store.Store
	agg    *rank.Aggregator
	alerts *alert.Manager
	logger *zap.Logger
	opts   Options
}

// New creates a new scheduler.
func New(s store.Store, agg *rank.Aggregator, alerts *alert.Manager, logger *zap.Logger, opts Options) *Scheduler {
	if agg == nil {
		agg = rank.NewAggregator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.MinRankChange < 1 {
		opts.MinRankChange = 1
	}
	return &Scheduler{
		store:  s,
		agg:    agg,
		alerts: alerts,
		logger: logger,
		opts:   opts,
	}
}

// Run imports immediately, then once per interval. Blocks until ctx is
// cancelled. A failed run is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		zap.String("dataset", s.opts.DatasetPath),
		zap.Duration("interval", s.opts.Interval))
	s.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("import failed", zap.Error(err))
	}
}

// RunOnce performs a single import. Alert delivery failures are logged and
// do not fail the import.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	brands, err := dataset.Load(s.opts.DatasetPath)
	if err != nil {
		return Result{}, err
	}

	rows := s.agg.BuildRows(brands)
	imp, err := s.store.SaveImport(ctx, s.opts.DatasetPath, brands, rows)
	if err != nil {
		return Result{}, fmt.Errorf("save import: %w", err)
	}

	res := Result{
		Import: imp,
		Rows:   rows,
		Movers: rank.Movers(rows, s.opts.MinRankChange),
	}
	s.logger.Info("import complete",
		zap.String("import_id", imp.ID),
		zap.Int("brands", len(rows)),
		zap.Int("movers", len(res.Movers)))

	if len(res.Movers) == 0 || !s.alerts.HasNotifiers() {
		return res, nil
	}

	n := &alert.Notification{
		Title:    "Brand rank movers",
		Body:     fmt.Sprintf("%d brands moved %d or more places this month", len(res.Movers), s.opts.MinRankChange),
		ImportID: imp.ID,
		Movers:   alert.MoversFrom(res.Movers),
	}
	if err := s.alerts.Broadcast(ctx, n); err != nil {
		s.logger.Warn("alert delivery failed", zap.String("import_id", imp.ID), zap.Error(err))
		return res, nil
	}
	res.Alerted = true
	return res, nil
}
