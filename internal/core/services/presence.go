package services

import (
	"context"
	"log/slog"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

// PresenceTracker derives per-user presence from the registry and
// announces join/leave transitions. Presence is per-user, not
// per-session: the lifecycle controller only calls AnnounceLeave once
// the user's last session in the project is gone.
type PresenceTracker struct {
	registry contracts.Registry
	engine   contracts.Broadcaster
	log      *slog.Logger
}

func NewPresenceTracker(log *slog.Logger, registry contracts.Registry, engine contracts.Broadcaster) *PresenceTracker {
	return &PresenceTracker{registry: registry, engine: engine, log: log}
}

func (p *PresenceTracker) AnnounceJoin(ctx context.Context, projectID, userID int64) {
	msg := domain.NewEvent(domain.TypeUserJoined, domain.JoinLeavePayload{
		UserID:    userID,
		ProjectID: projectID,
	}, userID)
	p.engine.Broadcast(ctx, projectID, msg, userID)
	p.log.InfoContext(ctx, "presence - user joined", "project_id", projectID, "user_id", userID)
}

// AnnounceLeave is called after the session is already unregistered,
// so the departing user no longer appears in the snapshot other
// clients may request.
func (p *PresenceTracker) AnnounceLeave(ctx context.Context, projectID, userID int64) {
	msg := domain.NewEvent(domain.TypeUserLeft, domain.JoinLeavePayload{
		UserID:    userID,
		ProjectID: projectID,
	}, userID)
	p.engine.Broadcast(ctx, projectID, msg, userID)
	p.log.InfoContext(ctx, "presence - user left", "project_id", projectID, "user_id", userID)
}

// Snapshot wraps the current online-user list for delivery to one
// session; it is never broadcast. The receiving user is filtered out:
// the snapshot answers "who else is here".
func (p *PresenceTracker) Snapshot(projectID, forUser int64) domain.Envelope {
	online := p.registry.UsersOnline(projectID)
	users := make([]int64, 0, len(online))
	for _, uid := range online {
		if uid != forUser {
			users = append(users, uid)
		}
	}
	return domain.NewSystemEvent(domain.TypePresenceSnapshot, domain.PresencePayload{
		ProjectID: projectID,
		Users:     users,
	})
}
