package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
)

// NotificationWorker drains the notification stream and materializes
// per-user inbox entries. It is started from main and stops when the
// process context is cancelled; nothing here outlives its owner.
type NotificationWorker struct {
	log   *slog.Logger
	queue contracts.NotificationQueue
	store contracts.NotificationStore
	group string
}

func NewNotificationWorker(
	log *slog.Logger,
	queue contracts.NotificationQueue,
	store contracts.NotificationStore,
	group string,
) contracts.AsyncWorker {
	return &NotificationWorker{
		log:   log,
		queue: queue,
		store: store,
		group: group,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "worker - subscribing", "topic", services.NotifyTopic, "group", w.group)
	return w.queue.SubscribeToStream(ctx, services.NotifyTopic, w.group, w.ProcessMessage)
}

func (w *NotificationWorker) ProcessMessage(ctx context.Context, messageID string, raw []byte) error {
	var job services.NotificationJob
	if err := json.Unmarshal(raw, &job); err != nil {
		w.log.Error("worker - process message - bad payload", "message_id", messageID, "err", err)
		// poison message: ack and drop so it never redelivers
		_ = w.queue.AcknowledgeMessage(ctx, services.NotifyTopic, w.group, messageID)
		_ = w.queue.DeleteMessage(ctx, services.NotifyTopic, messageID)
		return err
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    job.UserID,
		Kind:      job.Kind,
		Title:     job.Title,
		Message:   job.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.store.Push(ctx, n); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - store push failed", "message_id", messageID, "user_id", job.UserID, "err", err)
		return err
	}

	if err := w.queue.AcknowledgeMessage(ctx, services.NotifyTopic, w.group, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - ack failed", "message_id", messageID, "err", err)
		return err
	}
	if err := w.queue.DeleteMessage(ctx, services.NotifyTopic, messageID); err != nil {
		// already acked; deletion is housekeeping only
		w.log.WarnContext(ctx, "worker - process message - delete failed", "message_id", messageID, "err", err)
	}
	return nil
}
