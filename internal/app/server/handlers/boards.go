package handlers

import (
	"net/http"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

type BoardHandler struct {
	boards *services.BoardService
}

func NewBoardHandler(boards *services.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	board, err := h.boards.CreateBoard(r.Context(), userID, projectID, req.Name, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	projectID, err := idParam(r, "projectID")
	if err != nil {
		writeError(w, err)
		return
	}
	boards, err := h.boards.ListBoards(r.Context(), userID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	boardID, err := idParam(r, "boardID")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.boards.GetBoard(r.Context(), userID, boardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	boardID, err := idParam(r, "boardID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	board := &domain.Board{ID: boardID, Name: req.Name, Position: req.Position}
	updated, err := h.boards.UpdateBoard(r.Context(), userID, board)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	boardID, err := idParam(r, "boardID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	list, err := h.boards.CreateList(r.Context(), userID, boardID, req.Name, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *BoardHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listID, err := idParam(r, "listID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	list := &domain.List{ID: listID, Name: req.Name, Position: req.Position}
	updated, err := h.boards.UpdateList(r.Context(), userID, list)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *BoardHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listID, err := idParam(r, "listID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.boards.DeleteList(r.Context(), userID, listID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
