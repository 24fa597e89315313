package handlers

import (
	"net/http"
	"strconv"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

type NotificationHandler struct {
	store contracts.NotificationStore
}

func NewNotificationHandler(store contracts.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List returns the caller's most recent notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	notifications, err := h.store.List(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}
