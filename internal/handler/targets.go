package handler

import (
	"net/http"

	"dynroute53/internal/service"
)

type TargetHandler struct {
	targets *service.Targets
}

func NewTargetHandler(targets *service.Targets) *TargetHandler {
	return &TargetHandler{targets: targets}
}

type targetRequest struct {
	Name       *string `json:"name"`
	WebhookURL *string `json:"webhookUrl"`
	Active     *bool   `json:"active"`
}

func (h *TargetHandler) List(w http.ResponseWriter, r *http.Request) {
	targets, err := h.targets.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (h *TargetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var name, url string
	if req.Name != nil {
		name = *req.Name
	}
	if req.WebhookURL != nil {
		url = *req.WebhookURL
	}
	t, err := h.targets.Create(r.Context(), name, url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TargetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.targets.Update(r.Context(), id, service.TargetPatch(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.targets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test reports a passing probe as {"ok": true}; a failing one is an
// upstream error.
func (h *TargetHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.targets.Test(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
