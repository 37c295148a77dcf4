package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dynroute53/internal/service"
)

type SettingHandler struct {
	settings *service.Settings
}

func NewSettingHandler(settings *service.Settings) *SettingHandler {
	return &SettingHandler{settings: settings}
}

type settingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Set expects {"value": ...} shaped like the key's declared kind.
func (h *SettingHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.settings.SetJSON(r.Context(), chi.URLParam(r, "key"), req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.ResetToDefault(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
