package contracts

import (
	"context"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

// NotificationStore persists per-user notification inboxes.
type NotificationStore interface {
	Push(ctx context.Context, n domain.Notification) error
	List(ctx context.Context, userID int64, limit int64) ([]domain.Notification, error)
}
