package handler

import (
	"net/http"
	"strconv"

	"dynroute53/internal/apperr"
	"dynroute53/internal/service"
)

type ZoneHandler struct {
	cache *service.ZoneCache
}

func NewZoneHandler(cache *service.ZoneCache) *ZoneHandler {
	return &ZoneHandler{cache: cache}
}

type refreshRequest struct {
	CredentialAccountID int64 `json:"credentialAccountId"`
}

// List returns the cached zones of ?credentialAccountId.  An account that
// was never refreshed yields an empty list.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("credentialAccountId")
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || accountID < 1 {
		writeError(w, r, apperr.Validation("credentialAccountId query parameter is required"))
		return
	}
	zones, err := h.cache.ListFor(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

func (h *ZoneHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CredentialAccountID < 1 {
		writeError(w, r, apperr.Validation("credentialAccountId is required"))
		return
	}
	zones, err := h.cache.Refresh(r.Context(), req.CredentialAccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}
