package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

// NotifyTopic is the stream the notification worker consumes.
const NotifyTopic = "taskly:notifications"

// NotificationJob is the producer→worker wire format on the stream.
type NotificationJob struct {
	UserID    int64  `json:"user_id"`
	Kind      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ProjectID int64  `json:"project_id"`
}

// Notifier is the single completion path for committed mutations: it
// pushes the realtime envelope to the project's sessions, records the
// audit activity, drops the project's cached reads, and hands
// per-recipient notification jobs to the async sink. It runs on the
// request handler's goroutine; the engine and queue handle their own
// concurrency.
type Notifier struct {
	engine     contracts.Broadcaster
	cache      contracts.Cache
	queue      contracts.NotificationQueue
	activities domain.ActivityRepository
	log        *slog.Logger
}

func NewNotifier(
	log *slog.Logger,
	engine contracts.Broadcaster,
	cache contracts.Cache,
	queue contracts.NotificationQueue,
	activities domain.ActivityRepository,
) *Notifier {
	return &Notifier{engine: engine, cache: cache, queue: queue, activities: activities, log: log}
}

func ProjectCachePrefix(projectID int64) string {
	return fmt.Sprintf("taskly:cache:project:%d:", projectID)
}

// MutationCommitted must be called only after the surrounding
// transaction has committed; everything here is best-effort and never
// fails the request that triggered it.
func (n *Notifier) MutationCommitted(ctx context.Context, projectID int64, kind string, payload any, actorID int64, recipients []int64) {
	msg := domain.NewEvent(kind, payload, actorID)
	n.engine.Broadcast(ctx, projectID, msg, actorID)

	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	activity := &domain.Activity{
		ProjectID: projectID,
		UserID:    actorID,
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := n.activities.RecordActivity(ctx, activity); err != nil {
		n.log.WarnContext(ctx, "notifier - activity record failed", "project_id", projectID, "type", kind, "err", err)
	}

	if err := n.cache.InvalidatePrefix(ctx, ProjectCachePrefix(projectID)); err != nil {
		n.log.WarnContext(ctx, "notifier - cache invalidation failed", "project_id", projectID, "err", err)
	}

	title := fmt.Sprintf("Project %d: %s", projectID, kind)
	for _, uid := range recipients {
		if uid == actorID {
			continue
		}
		job := NotificationJob{
			UserID:    uid,
			Kind:      kind,
			Title:     title,
			Message:   kind,
			ProjectID: projectID,
		}
		raw, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := n.queue.PublishToStream(ctx, NotifyTopic, raw); err != nil {
			n.log.WarnContext(ctx, "notifier - publish to stream failed", "user_id", uid, "err", err)
		}
	}
}
