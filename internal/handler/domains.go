package handler

import (
	"net/http"
	"time"

	"dynroute53/internal/model"
	"dynroute53/internal/service"
)

type DomainHandler struct {
	domains *service.Domains
}

func NewDomainHandler(domains *service.Domains) *DomainHandler {
	return &DomainHandler{domains: domains}
}

// domainRequest is the wire form of a domain write.  POST treats absent
// fields as empty, except active which defaults to true; PUT leaves absent
// fields as stored.
type domainRequest struct {
	DomainName           *string           `json:"domainName"`
	CredentialAccountID  *int64            `json:"credentialAccountId"`
	ZoneSelectionMode    *string           `json:"zoneSelectionMode"`
	CachedZoneID         string            `json:"cachedZoneId"`
	ManualZoneID         string            `json:"manualZoneId"`
	RecordType           *model.RecordType `json:"recordType"`
	TTL                  *int64            `json:"ttl"`
	Active               *bool             `json:"active"`
	NotificationTargetID *int64            `json:"notificationTargetId"`
}

func (d domainRequest) zone() *service.ZoneSelection {
	if d.ZoneSelectionMode == nil {
		return nil
	}
	return &service.ZoneSelection{
		Mode:         service.ZoneSelectionMode(*d.ZoneSelectionMode),
		CachedZoneID: d.CachedZoneID,
		ManualZoneID: d.ManualZoneID,
	}
}

func (d domainRequest) create() service.DomainRequest {
	req := service.DomainRequest{Active: true}
	if d.DomainName != nil {
		req.DomainName = *d.DomainName
	}
	if d.CredentialAccountID != nil {
		req.CredentialAccountID = *d.CredentialAccountID
	}
	if z := d.zone(); z != nil {
		req.Zone = *z
	}
	if d.RecordType != nil {
		req.RecordType = *d.RecordType
	}
	if d.TTL != nil {
		req.TTL = *d.TTL
	}
	if d.Active != nil {
		req.Active = *d.Active
	}
	if d.NotificationTargetID != nil && *d.NotificationTargetID != 0 {
		req.NotificationTargetID = d.NotificationTargetID
	}
	return req
}

func (d domainRequest) patch() service.DomainPatch {
	return service.DomainPatch{
		DomainName:           d.DomainName,
		CredentialAccountID:  d.CredentialAccountID,
		Zone:                 d.zone(),
		RecordType:           d.RecordType,
		TTL:                  d.TTL,
		Active:               d.Active,
		NotificationTargetID: d.NotificationTargetID,
	}
}

type recordIPRequest struct {
	IP string    `json:"ip"`
	At time.Time `json:"at"`
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	domains, err := h.domains.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.domains.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.domains.Create(r.Context(), req.create())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DomainHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req domainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.domains.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.domains.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DomainHandler) UpdateIP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.domains.TriggerIPRefresh(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RecordIP accepts an address pushed by an external updater.
func (h *DomainHandler) RecordIP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordIPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.domains.RecordIP(r.Context(), id, req.IP, req.At)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
