package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/metrics"
	"dynroute53/internal/model"
)

// ZoneCache keeps the provider zones of each credential account.  Entries
// change only through Refresh; there is no expiry.
type ZoneCache struct {
	accounts AccountRepository
	zones    ZoneRepository
	lister   ZoneLister
	audit    *Auditor
	log      *zap.SugaredLogger

	group singleflight.Group
	now   func() time.Time
}

func NewZoneCache(accounts AccountRepository, zones ZoneRepository, lister ZoneLister, audit *Auditor, log *zap.SugaredLogger) *ZoneCache {
	return &ZoneCache{
		accounts: accounts,
		zones:    zones,
		lister:   lister,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

// Refresh lists the account's zones at the provider and replaces the cached
// set wholesale.  Concurrent refreshes of one account share a single
// provider call, which is not cancelled when the caller that started it
// goes away.  Every caller gets its own audit entry.
func (c *ZoneCache) Refresh(ctx context.Context, accountID int64) ([]model.Zone, error) {
	v, err, shared := c.group.Do(strconv.FormatInt(accountID, 10), func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), accountID)
	})
	if err != nil {
		return nil, err
	}
	zones := v.([]model.Zone)

	detail := "zones=" + strconv.Itoa(len(zones))
	if shared {
		detail += " shared=true"
	}
	c.audit.Record(context.WithoutCancel(ctx), "refresh_zones", "credential_account", accountID, detail)
	c.log.Infow("zone cache refreshed", "account_id", accountID, "zones", len(zones), "shared", shared, "caller", auth.CallerFrom(ctx).Username)
	return zones, nil
}

func (c *ZoneCache) refresh(ctx context.Context, accountID int64) ([]model.Zone, error) {
	account, err := c.accounts.GetAccount(ctx, accountID)
	if err != nil {
		metrics.ZoneRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("credential account %d not found", accountID)
	}

	listed, err := c.lister.ListZones(ctx, *account)
	if err != nil {
		metrics.ZoneRefreshTotal.WithLabelValues("upstream_error").Inc()
		c.log.Warnw("zone listing failed", "account_id", accountID, "err", err)
		return nil, apperr.Upstream(err, "list zones for account %d", accountID)
	}

	now := c.now().UTC()
	zones := make([]model.Zone, 0, len(listed))
	for _, z := range listed {
		z.CredentialAccountID = accountID
		z.RefreshedAt = now
		zones = append(zones, z)
	}

	if err := c.zones.ReplaceZones(ctx, accountID, zones); err != nil {
		metrics.ZoneRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ZoneRefreshTotal.WithLabelValues("ok").Inc()
	metrics.CachedZones.WithLabelValues(strconv.FormatInt(accountID, 10)).Set(float64(len(zones)))
	return zones, nil
}

// ListFor returns the cached zones of an account.  An empty result means
// the account was never refreshed or has no zones.
func (c *ZoneCache) ListFor(ctx context.Context, accountID int64) ([]model.Zone, error) {
	return c.zones.ListZones(ctx, accountID)
}

// Contains reports whether zoneID is in the account's cached set.
func (c *ZoneCache) Contains(ctx context.Context, accountID int64, zoneID string) (bool, error) {
	zones, err := c.zones.ListZones(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, z := range zones {
		if z.ID == zoneID {
			return true, nil
		}
	}
	return false, nil
}
