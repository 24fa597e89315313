package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

var tracer = otel.Tracer("taskly-services")

// BroadcastEngine fans an envelope out to every session in a project.
// Delivery failures are contained: a dead peer is collected during the
// fan-out and unregistered after it, so one broken socket never blocks
// or aborts delivery to the rest.
type BroadcastEngine struct {
	registry contracts.Registry
	log      *slog.Logger
}

func NewBroadcastEngine(log *slog.Logger, registry contracts.Registry) *BroadcastEngine {
	return &BroadcastEngine{registry: registry, log: log}
}

// Send serializes and enqueues one envelope for one session. The error
// return marks the session dead for the caller; nothing is raised
// beyond that.
func (b *BroadcastEngine) Send(ctx context.Context, s contracts.Session, msg domain.Envelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.ErrorContext(ctx, "broadcast - send - marshal failed", "type", msg.Type, "err", err)
		return err
	}
	if err := s.Send(ctx, data); err != nil {
		b.log.WarnContext(ctx, "broadcast - send - delivery failed", "session_id", s.ID(), "user_id", s.UserID(), "err", err)
		return err
	}
	return nil
}

// Broadcast delivers msg to every session in the project except those
// owned by excludeUser (0 excludes no one). It iterates a registry
// snapshot, so no lock is held during socket I/O, and reaps failed
// sessions only after the fan-out completes.
func (b *BroadcastEngine) Broadcast(ctx context.Context, projectID int64, msg domain.Envelope, excludeUser int64) {
	ctx, span := tracer.Start(ctx, "BroadcastEngine.Broadcast", trace.WithAttributes(
		attribute.Int64("project_id", projectID),
		attribute.String("message_type", msg.Type),
	))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		b.log.ErrorContext(ctx, "broadcast - marshal failed", "type", msg.Type, "err", err)
		return
	}

	sessions := b.registry.SessionsFor(projectID)
	var failed []contracts.Session
	delivered := 0
	for _, s := range sessions {
		if excludeUser != 0 && s.UserID() == excludeUser {
			continue
		}
		if err := s.Send(ctx, data); err != nil {
			failed = append(failed, s)
			continue
		}
		delivered++
	}

	for _, s := range failed {
		b.registry.Unregister(s)
		s.Close()
		b.log.InfoContext(ctx, "broadcast - reaped dead session", "session_id", s.ID(), "user_id", s.UserID(), "project_id", projectID)
	}
	span.SetAttributes(
		attribute.Int("delivered", delivered),
		attribute.Int("reaped", len(failed)),
	)
}
