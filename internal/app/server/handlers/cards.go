package handlers

import (
	"net/http"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

type CardHandler struct {
	cards *services.CardService
}

func NewCardHandler(cards *services.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

type cardRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Position    int        `json:"position"`
	AssigneeID  *int64     `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listID, err := idParam(r, "listID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cardRequest
	if err := decodeBody(r, &req); err != nil || req.Title == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	card := &domain.Card{
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	created, err := h.cards.Create(r.Context(), userID, card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CardHandler) ListForList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	listID, err := idParam(r, "listID")
	if err != nil {
		writeError(w, err)
		return
	}
	cards, err := h.cards.ListForList(r.Context(), userID, listID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	cardID, err := idParam(r, "cardID")
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := h.cards.Get(r.Context(), userID, cardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	cardID, err := idParam(r, "cardID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cardRequest
	if err := decodeBody(r, &req); err != nil || req.Title == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	card := &domain.Card{
		ID:          cardID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	updated, err := h.cards.Update(r.Context(), userID, card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	cardID, err := idParam(r, "cardID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.cards.Delete(r.Context(), userID, cardID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	cardID, err := idParam(r, "cardID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ToListID int64 `json:"to_list_id"`
		Position int   `json:"position"`
	}
	if err := decodeBody(r, &req); err != nil || req.ToListID <= 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	moved, err := h.cards.Move(r.Context(), userID, cardID, req.ToListID, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}
