package registry

import (
	"sort"
	"sync"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
)

// Registry is the per-process topic registry: project id → live
// sessions. A user may hold several concurrent sessions in the same
// project (one per tab), so both mappings hold sets keyed by session
// id rather than a single slot per user.
type Registry struct {
	mu sync.RWMutex
	// project_id → session_id → session
	sessions map[int64]map[string]contracts.Session
	// project_id → user_id → session_id set
	users map[int64]map[int64]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]map[string]contracts.Session),
		users:    make(map[int64]map[int64]map[string]struct{}),
	}
}

func (r *Registry) Register(s contracts.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid, uid, sid := s.ProjectID(), s.UserID(), s.ID()
	if r.sessions[pid] == nil {
		r.sessions[pid] = make(map[string]contracts.Session)
	}
	r.sessions[pid][sid] = s
	if r.users[pid] == nil {
		r.users[pid] = make(map[int64]map[string]struct{})
	}
	if r.users[pid][uid] == nil {
		r.users[pid][uid] = make(map[string]struct{})
	}
	r.users[pid][uid][sid] = struct{}{}
}

// Unregister removes the session from both mappings. Calling it with
// a session that was never registered, or twice with the same
// session, leaves the registry unchanged.
func (r *Registry) Unregister(s contracts.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid, uid, sid := s.ProjectID(), s.UserID(), s.ID()
	if set := r.sessions[pid]; set != nil {
		delete(set, sid)
		if len(set) == 0 {
			delete(r.sessions, pid)
		}
	}
	if byUser := r.users[pid]; byUser != nil {
		if set := byUser[uid]; set != nil {
			delete(set, sid)
			if len(set) == 0 {
				delete(byUser, uid)
			}
		}
		if len(byUser) == 0 {
			delete(r.users, pid)
		}
	}
}

// SessionsFor returns a snapshot slice. Callers iterate it outside
// the registry lock, so broadcast I/O never blocks registration.
func (r *Registry) SessionsFor(projectID int64) []contracts.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.sessions[projectID]
	out := make([]contracts.Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

func (r *Registry) UsersOnline(projectID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byUser := r.users[projectID]
	out := make([]int64, 0, len(byUser))
	for uid := range byUser {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) UserPresent(projectID, userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byUser := r.users[projectID]
	if byUser == nil {
		return false
	}
	return len(byUser[userID]) > 0
}

func (r *Registry) Counts() (int, map[int64]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	perProject := make(map[int64]int, len(r.sessions))
	for pid, set := range r.sessions {
		perProject[pid] = len(set)
		total += len(set)
	}
	return total, perProject
}
