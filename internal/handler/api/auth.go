package api

import (
	"log/slog"
	"net/http"

	"github.com/hojin-choi/oreum/internal/service"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	logger *slog.Logger
	auth   *service.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(logger *slog.Logger, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{logger: logger, auth: auth}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params service.RegisterParams
	if err := decode(r, &params); err != nil {
		respondError(w, h.logger, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), params)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{"user": user, "token": token})
}
