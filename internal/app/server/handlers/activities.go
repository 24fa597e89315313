package handlers

import (
	"net/http"
	"strconv"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	activities domain.ActivityRepository
	membership *services.MembershipService
}

func NewActivityHandler(activities domain.ActivityRepository, membership *services.MembershipService) *ActivityHandler {
	return &ActivityHandler{activities: activities, membership: membership}
}

// List returns the project's most recent activity records, newest
// first. Members only.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	member, err := h.membership.IsMember(r.Context(), userID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !member {
		writeError(w, domain.ErrNotMember)
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 || limit > 200 {
		limit = defaultActivityLimit
	}
	activities, err := h.activities.ListActivitiesForProject(r.Context(), projectID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
