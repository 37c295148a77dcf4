package service

import (
	"context"
	"strings"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

const (
	MinTTL = 60
	MaxTTL = 86400
)

type ZoneSelectionMode string

const (
	ZoneSelectionCached ZoneSelectionMode = "CACHED"
	ZoneSelectionManual ZoneSelectionMode = "MANUAL"
)

// ZoneSelection is how the operator named a zone: picked from the cache or
// typed in.
type ZoneSelection struct {
	Mode         ZoneSelectionMode
	CachedZoneID string
	ManualZoneID string
}

// DomainRequest is a complete domain write.
type DomainRequest struct {
	DomainName           string
	CredentialAccountID  int64
	Zone                 ZoneSelection
	RecordType           model.RecordType
	TTL                  int64
	Active               bool
	NotificationTargetID *int64
}

// Resolver turns a DomainRequest into a domain bound to a canonical zone id.
type Resolver struct {
	accounts AccountRepository
	targets  TargetRepository
	zones    *ZoneCache
}

func NewResolver(accounts AccountRepository, targets TargetRepository, zones *ZoneCache) *Resolver {
	return &Resolver{accounts: accounts, targets: targets, zones: zones}
}

// Resolve validates req and returns the domain to persist.  With a nil base
// a new domain is built; otherwise base is copied and its operator-owned
// fields replaced, so LastIP and LastUpdated carry over untouched.
func (r *Resolver) Resolve(ctx context.Context, req DomainRequest, base *model.Domain) (*model.Domain, error) {
	account, err := r.accounts.GetAccount(ctx, req.CredentialAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("credential account %d not found", req.CredentialAccountID)
	}

	zoneID, err := r.resolveZone(ctx, req.CredentialAccountID, req.Zone)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.DomainName)
	if name == "" {
		return nil, apperr.Validation("domain name is required")
	}
	if !req.RecordType.Valid() {
		return nil, apperr.Validation("record type must be A or AAAA, got %q", req.RecordType)
	}
	if req.TTL < MinTTL || req.TTL > MaxTTL {
		return nil, apperr.Validation("ttl must be between %d and %d seconds, got %d", MinTTL, MaxTTL, req.TTL)
	}

	var targetID *int64
	if req.NotificationTargetID != nil {
		t, err := r.targets.GetTarget(ctx, *req.NotificationTargetID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apperr.NotFound("notification target %d not found", *req.NotificationTargetID)
		}
		id := t.ID
		targetID = &id
	}

	d := &model.Domain{}
	if base != nil {
		*d = *base
	}
	d.Name = name
	d.ZoneID = zoneID
	d.RecordType = req.RecordType
	d.TTL = req.TTL
	d.Active = req.Active
	d.CredentialAccountID = account.ID
	d.NotificationTargetID = targetID
	return d, nil
}

func (r *Resolver) resolveZone(ctx context.Context, accountID int64, sel ZoneSelection) (string, error) {
	switch sel.Mode {
	case ZoneSelectionCached:
		if sel.CachedZoneID == "" {
			return "", apperr.Validation("zone required")
		}
		ok, err := r.zones.Contains(ctx, accountID, sel.CachedZoneID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", apperr.Validation("zone %s not in cache for this account, refresh required", sel.CachedZoneID)
		}
		return sel.CachedZoneID, nil
	case ZoneSelectionManual:
		// Manual ids are trusted verbatim; the provider rejects bad ones
		// when the record is pushed.
		if sel.ManualZoneID == "" {
			return "", apperr.Validation("zone required")
		}
		return sel.ManualZoneID, nil
	default:
		return "", apperr.Validation("zone selection mode must be CACHED or MANUAL, got %q", sel.Mode)
	}
}
