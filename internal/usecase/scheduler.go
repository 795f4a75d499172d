package usecase

import (
	"context"
	"log/slog"
	"time"

	"SlateBuilder/internal/ports"
)

// StatsRefresher reconciles the per-user domain save counts on a schedule
// so the frequent-source percentile keeps reflecting the raw content rows.
type StatsRefresher struct {
	driver ports.Scheduler
	stats  ports.StatsMaintainer
	logger *slog.Logger
}

// NewStatsRefresher wires the cron driver to the stats maintainer.
func NewStatsRefresher(driver ports.Scheduler, stats ports.StatsMaintainer, logger *slog.Logger) *StatsRefresher {
	return &StatsRefresher{driver: driver, stats: stats, logger: logger}
}

// Start registers the reconciliation job with the scheduler.
func (r *StatsRefresher) Start(ctx context.Context) error {
	if r.driver == nil || r.stats == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := r.stats.RecomputeDomainStats(ctx); err != nil {
			r.error("domain stats refresh failed", "trigger", trigger, "error", err)
			return
		}
		r.debug("domain stats refreshed", "trigger", trigger)
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (r *StatsRefresher) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}

func (r *StatsRefresher) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *StatsRefresher) error(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
