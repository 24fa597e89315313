package handlers

import (
	"net/http"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

type ProjectHandler struct {
	projects   *services.ProjectService
	membership *services.MembershipService
}

func NewProjectHandler(projects *services.ProjectService, membership *services.MembershipService) *ProjectHandler {
	return &ProjectHandler{projects: projects, membership: membership}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	project, err := h.projects.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projects, err := h.projects.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	project, err := h.projects.Get(r.Context(), userID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	current, err := h.projects.Get(r.Context(), userID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != "" {
		current.Name = req.Name
	}
	current.Description = req.Description
	updated, err := h.projects.Update(r.Context(), userID, current)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.projects.Delete(r.Context(), userID, projectID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	// only existing members may invite
	if _, err := h.projects.Get(r.Context(), userID, projectID); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID <= 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	member := &domain.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      domain.RoleMember,
		JoinedAt:  time.Now().UTC(),
	}
	if err := h.membership.AddMember(r.Context(), member); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.projects.Get(r.Context(), userID, projectID); err != nil {
		writeError(w, err)
		return
	}
	members, err := h.membership.ListMembers(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}
