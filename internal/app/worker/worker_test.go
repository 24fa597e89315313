package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
)

type fakeQueue struct {
	mu      sync.Mutex
	acked   []string
	deleted []string
}

func (q *fakeQueue) PublishToStream(_ context.Context, _ string, _ []byte) error { return nil }

func (q *fakeQueue) SubscribeToStream(ctx context.Context, _, _ string, _ func(context.Context, string, []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (q *fakeQueue) AcknowledgeMessage(_ context.Context, _, _, messageID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, messageID)
	return nil
}

func (q *fakeQueue) DeleteMessage(_ context.Context, _, messageID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, messageID)
	return nil
}

type fakeStore struct {
	pushed  []domain.Notification
	pushErr error
}

func (s *fakeStore) Push(_ context.Context, n domain.Notification) error {
	if s.pushErr != nil {
		return s.pushErr
	}
	s.pushed = append(s.pushed, n)
	return nil
}

func (s *fakeStore) List(_ context.Context, _ int64, _ int64) ([]domain.Notification, error) {
	return nil, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nullWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestProcessMessageStoresAndAcks(t *testing.T) {
	queue := &fakeQueue{}
	store := &fakeStore{}
	w := NewNotificationWorker(quietLogger(), queue, store, "test-group")

	raw, _ := json.Marshal(services.NotificationJob{
		UserID:    7,
		Kind:      "card_created",
		Title:     "Project 10: card_created",
		ProjectID: 10,
	})
	if err := w.ProcessMessage(context.Background(), "msg-1", raw); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(store.pushed) != 1 {
		t.Fatalf("pushed %d notifications, want 1", len(store.pushed))
	}
	n := store.pushed[0]
	if n.UserID != 7 || n.Kind != "card_created" || n.ID == "" {
		t.Fatalf("stored notification %+v", n)
	}
	if len(queue.acked) != 1 || queue.acked[0] != "msg-1" {
		t.Fatalf("acked = %v", queue.acked)
	}
	if len(queue.deleted) != 1 || queue.deleted[0] != "msg-1" {
		t.Fatalf("deleted = %v", queue.deleted)
	}
}

func TestProcessMessageDropsPoison(t *testing.T) {
	queue := &fakeQueue{}
	store := &fakeStore{}
	w := NewNotificationWorker(quietLogger(), queue, store, "test-group")

	if err := w.ProcessMessage(context.Background(), "msg-bad", []byte("{not json")); err == nil {
		t.Fatal("expected an error for a poison message")
	}

	if len(store.pushed) != 0 {
		t.Fatalf("poison message reached the store: %v", store.pushed)
	}
	// The message is acked and deleted so it never redelivers.
	if len(queue.acked) != 1 || queue.acked[0] != "msg-bad" {
		t.Fatalf("acked = %v", queue.acked)
	}
	if len(queue.deleted) != 1 {
		t.Fatalf("deleted = %v", queue.deleted)
	}
}

func TestProcessMessageRetriesOnStoreFailure(t *testing.T) {
	queue := &fakeQueue{}
	store := &fakeStore{pushErr: errors.New("redis down")}
	w := NewNotificationWorker(quietLogger(), queue, store, "test-group")

	raw, _ := json.Marshal(services.NotificationJob{UserID: 7, Kind: "card_created"})
	if err := w.ProcessMessage(context.Background(), "msg-2", raw); err == nil {
		t.Fatal("expected the store error to surface")
	}

	// Not acked: the group redelivers it later.
	if len(queue.acked) != 0 || len(queue.deleted) != 0 {
		t.Fatalf("acked=%v deleted=%v, want neither", queue.acked, queue.deleted)
	}
}
