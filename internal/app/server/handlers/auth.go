package handlers

import (
	"net/http"

	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/internal/platform/logger"
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
}

func NewAuthHandler(u *services.UserService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - register failed", "username", req.Username, "err", err)
		writeError(w, err)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "user_id", user.ID, "err", err)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		log.WarnContext(r.Context(), "auth handler - login failed", "username", req.Username)
		writeError(w, err)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"user_id": user.ID,
	})
}
