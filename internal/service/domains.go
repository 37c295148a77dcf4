package service

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/metrics"
	"dynroute53/internal/model"
)

// DomainPatch is a partial domain update.  Nil fields keep their stored
// value.  A NotificationTargetID of 0 removes the target.
type DomainPatch struct {
	DomainName           *string
	CredentialAccountID  *int64
	Zone                 *ZoneSelection
	RecordType           *model.RecordType
	TTL                  *int64
	Active               *bool
	NotificationTargetID *int64
}

// Domains is the domain registry.
type Domains struct {
	repo     DomainRepository
	accounts AccountRepository
	targets  TargetRepository
	resolver *Resolver
	updater  IPUpdater
	audit    *Auditor
	log      *zap.SugaredLogger
}

// NewDomains builds the registry.  updater may be nil, in which case
// TriggerIPRefresh fails with an Upstream error.
func NewDomains(repo DomainRepository, accounts AccountRepository, targets TargetRepository, resolver *Resolver, updater IPUpdater, audit *Auditor, log *zap.SugaredLogger) *Domains {
	return &Domains{
		repo:     repo,
		accounts: accounts,
		targets:  targets,
		resolver: resolver,
		updater:  updater,
		audit:    audit,
		log:      log,
	}
}

func (s *Domains) List(ctx context.Context) ([]model.Domain, error) {
	return s.repo.ListDomains(ctx)
}

func (s *Domains) Get(ctx context.Context, id int64) (*model.Domain, error) {
	d, err := s.repo.GetDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("domain %d not found", id)
	}
	return d, nil
}

func (s *Domains) Create(ctx context.Context, req DomainRequest) (*model.Domain, error) {
	d, err := s.resolver.Resolve(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	metrics.DomainWritesTotal.WithLabelValues("create").Inc()
	s.audit.Record(ctx, "create_domain", "domain", d.ID, fmt.Sprintf("name=%s zone=%s type=%s ttl=%d", d.Name, d.ZoneID, d.RecordType, d.TTL))
	s.log.Infow("domain created", "domain_id", d.ID, "name", d.Name, "zone_id", d.ZoneID, "account_id", d.CredentialAccountID,
		"caller", auth.CallerFrom(ctx).Username)
	return d, nil
}

// Update merges p into the stored domain and resolves the result exactly as
// Create would.  Without a zone selection the stored canonical zone id is
// kept as is.
func (s *Domains) Update(ctx context.Context, id int64, p DomainPatch) (*model.Domain, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req := DomainRequest{
		DomainName:           cur.Name,
		CredentialAccountID:  cur.CredentialAccountID,
		Zone:                 ZoneSelection{Mode: ZoneSelectionManual, ManualZoneID: cur.ZoneID},
		RecordType:           cur.RecordType,
		TTL:                  cur.TTL,
		Active:               cur.Active,
		NotificationTargetID: cur.NotificationTargetID,
	}
	if p.DomainName != nil {
		req.DomainName = *p.DomainName
	}
	if p.CredentialAccountID != nil {
		req.CredentialAccountID = *p.CredentialAccountID
	}
	if p.Zone != nil {
		req.Zone = *p.Zone
	}
	if p.RecordType != nil {
		req.RecordType = *p.RecordType
	}
	if p.TTL != nil {
		req.TTL = *p.TTL
	}
	if p.Active != nil {
		req.Active = *p.Active
	}
	if p.NotificationTargetID != nil {
		if *p.NotificationTargetID == 0 {
			req.NotificationTargetID = nil
		} else {
			req.NotificationTargetID = p.NotificationTargetID
		}
	}

	d, err := s.resolver.Resolve(ctx, req, cur)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDomain(ctx, d); err != nil {
		return nil, err
	}
	metrics.DomainWritesTotal.WithLabelValues("update").Inc()
	s.audit.Record(ctx, "update_domain", "domain", d.ID, fmt.Sprintf("name=%s zone=%s type=%s ttl=%d active=%t", d.Name, d.ZoneID, d.RecordType, d.TTL, d.Active))
	s.log.Infow("domain updated", "domain_id", d.ID, "zone_id", d.ZoneID, "caller", auth.CallerFrom(ctx).Username)
	return d, nil
}

func (s *Domains) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDomain(ctx, id); err != nil {
		return err
	}
	metrics.DomainWritesTotal.WithLabelValues("delete").Inc()
	s.audit.Record(ctx, "delete_domain", "domain", id, "")
	s.log.Infow("domain deleted", "domain_id", id, "caller", auth.CallerFrom(ctx).Username)
	return nil
}

// TriggerIPRefresh hands an active domain to the IP updater and stores the
// address it reports.
func (s *Domains) TriggerIPRefresh(ctx context.Context, id int64) (*model.Domain, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, apperr.Validation("domain %d is inactive", id)
	}
	if s.updater == nil {
		return nil, apperr.Upstream(errNotConfigured, "ip updater unavailable")
	}

	account, err := s.accounts.GetAccount(ctx, d.CredentialAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("credential account %d not found", d.CredentialAccountID)
	}

	var target *model.NotificationTarget
	if d.NotificationTargetID != nil {
		t, err := s.targets.GetTarget(ctx, *d.NotificationTargetID)
		if err != nil {
			return nil, err
		}
		if t != nil && t.Active {
			target = t
		}
	}

	report, err := s.updater.UpdateIP(ctx, *d, *account, target)
	if err != nil {
		s.log.Warnw("ip refresh failed", "domain_id", id, "err", err)
		return nil, apperr.Upstream(err, "ip refresh for domain %d", id)
	}
	addr, err := addrFor(d.RecordType, report.IP)
	if err != nil {
		s.log.Warnw("ip updater reported an unusable address", "domain_id", id, "ip", report.IP, "err", err)
		return nil, apperr.Upstream(err, "ip refresh for domain %d", id)
	}
	return s.saveIP(ctx, d, addr, report.At)
}

// RecordIP stores an address reported by an external updater.  The address
// family must match the record type.
func (s *Domains) RecordIP(ctx context.Context, id int64, ip string, at time.Time) (*model.Domain, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	addr, err := addrFor(d.RecordType, ip)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return s.saveIP(ctx, d, addr, at)
}

// addrFor parses ip and checks its family against the record type.
func addrFor(rt model.RecordType, ip string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid ip address %q", ip)
	}
	addr = addr.Unmap()
	if (rt == model.RecordTypeA) != addr.Is4() {
		return netip.Addr{}, fmt.Errorf("address %s does not fit record type %s", ip, rt)
	}
	return addr, nil
}

func (s *Domains) saveIP(ctx context.Context, d *model.Domain, addr netip.Addr, at time.Time) (*model.Domain, error) {
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	ipStr := addr.String()

	if err := s.repo.RecordIP(ctx, d.ID, ipStr, at); err != nil {
		return nil, err
	}
	old := ""
	if d.LastIP != nil {
		old = *d.LastIP
	}
	d.LastIP = &ipStr
	d.LastUpdated = &at

	metrics.DomainWritesTotal.WithLabelValues("record_ip").Inc()
	s.audit.Record(ctx, "record_ip", "domain", d.ID, "old="+old+" new="+ipStr)
	s.log.Infow("domain ip recorded", "domain_id", d.ID, "old_ip", old, "new_ip", ipStr)
	return d, nil
}
