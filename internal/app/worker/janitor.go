package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

const sweepInterval = 24 * time.Hour

// ActivityJanitor prunes audit records older than the retention
// window, once a day.
type ActivityJanitor struct {
	log        *slog.Logger
	activities domain.ActivityRepository
	retention  time.Duration
	interval   time.Duration
}

func NewActivityJanitor(log *slog.Logger, activities domain.ActivityRepository, retention time.Duration) *ActivityJanitor {
	return &ActivityJanitor{
		log:        log,
		activities: activities,
		retention:  retention,
		interval:   sweepInterval,
	}
}

func (j *ActivityJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *ActivityJanitor) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.activities.DeleteActivitiesBefore(ctx, cutoff)
	if err != nil {
		j.log.WarnContext(ctx, "janitor - activity sweep failed", "err", err)
		return
	}
	if deleted > 0 {
		j.log.InfoContext(ctx, "janitor - pruned activities", "deleted", deleted, "cutoff", cutoff)
	}
}
