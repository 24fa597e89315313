package contracts

import (
	"context"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

// Broadcaster is the fan-out engine. REST handlers call it after a
// committed mutation; the socket router calls it for client frames.
type Broadcaster interface {
	// Send delivers one envelope to one session. A failed delivery is
	// reported through the returned error but must never panic or
	// block beyond the configured send timeout.
	Send(ctx context.Context, s Session, msg domain.Envelope) error
	// Broadcast delivers the envelope to every session in the project
	// except those owned by excludeUser (0 excludes no one). Sessions
	// whose delivery fails are unregistered after the fan-out.
	Broadcast(ctx context.Context, projectID int64, msg domain.Envelope, excludeUser int64)
}
