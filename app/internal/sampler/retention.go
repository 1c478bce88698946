package sampler

import (
	"context"
	"fmt"
	"time"

	"droidmon/app/internal/database"
	"droidmon/app/internal/logger"

	"go.uber.org/zap"
)

// DefaultEventsKept bounds the event log
const DefaultEventsKept = 1000

// RetentionStore is the part of the store the retention runner prunes
type RetentionStore interface {
	DeleteOlderThanDays(ctx context.Context, days int, now time.Time) (int, error)
	PruneEvents(ctx context.Context, keep int) (int, error)
	InsertEvent(ctx context.Context, level, category, message, details string) error
}

// Retention periodically deletes records older than Days and trims the
// event log. Days <= 0 keeps records forever.
type Retention struct {
	Store      RetentionStore
	Days       int
	EventsKept int
	Interval   time.Duration
	Clock      Clock
}

// RunOnce prunes once and returns the number of records removed
func (r *Retention) RunOnce(ctx context.Context) (int, error) {
	clock := r.Clock
	if clock == nil {
		clock = SystemClock
	}

	removed := 0
	if r.Days > 0 {
		n, err := r.Store.DeleteOlderThanDays(ctx, r.Days, clock.Now())
		if err != nil {
			return 0, fmt.Errorf("retention: %w", err)
		}
		removed = n
		if n > 0 {
			logger.Info("old records removed", zap.Int("count", n), zap.Int("days", r.Days))
			msg := fmt.Sprintf("Removed %d records older than %d days", n, r.Days)
			if err := r.Store.InsertEvent(ctx, database.EventInfo, database.CategoryRetention, msg, ""); err != nil {
				logger.Warn("failed to record retention event", zap.Error(err))
			}
		}
	}

	keep := r.EventsKept
	if keep <= 0 {
		keep = DefaultEventsKept
	}
	if _, err := r.Store.PruneEvents(ctx, keep); err != nil {
		return removed, fmt.Errorf("prune events: %w", err)
	}
	return removed, nil
}

// Run prunes immediately and then every Interval (hourly by default) until
// ctx is done
func (r *Retention) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("retention pass failed", zap.Error(err))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
