package contracts

import "context"

// Registry tracks the live sessions of one process, partitioned by
// project scope. All implementations must be safe for concurrent use
// and must never expose their internal maps: reads hand out snapshots.
type Registry interface {
	// Register adds the session to its project's set and to the owning
	// user's active-session set.
	Register(s Session)
	// Unregister removes the session from both mappings. Removing a
	// session that is already gone is a no-op.
	Unregister(s Session)
	// SessionsFor returns a point-in-time copy of the project's sessions.
	SessionsFor(projectID int64) []Session
	// UsersOnline returns the distinct users with at least one live
	// session in the project, in ascending order.
	UsersOnline(projectID int64) []int64
	// UserPresent reports whether the user still holds any session in
	// the project.
	UserPresent(projectID, userID int64) bool
	// Counts returns the total session count and the per-project counts.
	Counts() (total int, perProject map[int64]int)
}

// Session is one authenticated live connection bound to a project.
// Writes to the underlying transport are serialized by the session's
// own writer; Send only enqueues.
type Session interface {
	ID() string
	UserID() int64
	ProjectID() int64
	Send(ctx context.Context, data []byte) error
	Close()
}
