package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/service"
)

// UserAdmin is what first-run setup needs from storage.
type UserAdmin interface {
	HasUsers(ctx context.Context) (bool, error)
	CreateFirstUser(ctx context.Context, username, password, role string) (bool, error)
}

// SetupHandler creates the first admin on a fresh install.  Once any user
// exists the endpoint answers 404.
type SetupHandler struct {
	users UserAdmin
}

func NewSetupHandler(users UserAdmin) *SetupHandler {
	return &SetupHandler{users: users}
}

type setupRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *SetupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	hasUsers, err := h.users.HasUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hasUsers {
		writeError(w, r, apperr.NotFound("setup already completed"))
		return
	}

	var req setupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case req.Username == "":
		err = apperr.Validation("username is required")
	case len(req.Password) < service.MinPasswordLen:
		err = apperr.Validation("password must be at least %d characters", service.MinPasswordLen)
	case req.Password != req.ConfirmPassword:
		err = apperr.Validation("passwords do not match")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.users.CreateFirstUser(r.Context(), req.Username, req.Password, auth.RoleAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !created {
		writeError(w, r, apperr.NotFound("setup already completed"))
		return
	}
	zap.S().Infow("initial admin created", "username", req.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username, "role": auth.RoleAdmin})
}

// RequireSetupComplete answers 503 until the first user exists.
func RequireSetupComplete(users UserAdmin, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasUsers, err := users.HasUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !hasUsers {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "setup_required", Message: "create the first admin via POST /api/setup"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
