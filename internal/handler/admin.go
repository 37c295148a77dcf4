package handler

import (
	"net/http"
	"strconv"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
	"dynroute53/internal/service"
)

type AdminHandler struct {
	audit *service.Auditor
	users *service.Users
}

func NewAdminHandler(audit *service.Auditor, users *service.Users) *AdminHandler {
	return &AdminHandler{audit: audit, users: users}
}

type userRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var username, password, role string
	if req.Username != nil {
		username = *req.Username
	}
	if req.Password != nil {
		password = *req.Password
	}
	if req.Role != nil {
		role = *req.Role
	}
	u, err := h.users.Create(r.Context(), username, password, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser changes role, active flag or password.  Usernames are fixed.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Username != nil {
		writeError(w, r, apperr.Validation("username cannot be changed"))
		return
	}
	u, err := h.users.Update(r.Context(), id, service.UserPatch{Role: req.Role, Active: req.Active, Password: req.Password})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditPage struct {
	Entries    []model.AuditEntry `json:"entries"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
	Total      int                `json:"total"`
}

// AuditLog returns ?page=N of the audit log, newest first.
func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	entries, total, err := h.audit.Page(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	limit := h.audit.PageSize()
	writeJSON(w, http.StatusOK, auditPage{
		Entries:    entries,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
		Total:      total,
	})
}
