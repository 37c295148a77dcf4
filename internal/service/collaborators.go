package service

import (
	"context"
	"errors"
	"time"

	"dynroute53/internal/model"
)

// ZoneLister lists the zones visible to a credential account at the
// provider.  Returned zones need only ID, Name, RecordCount, Comment and
// Private; the cache stamps the rest.
type ZoneLister interface {
	ListZones(ctx context.Context, account model.CredentialAccount) ([]model.Zone, error)
}

// IPReport is what an IP updater observed and pushed to the provider.
type IPReport struct {
	IP string
	At time.Time
}

// IPUpdater detects the public address for a domain's record type and
// pushes it to the provider.  target is nil when the domain has no active
// notification target.
type IPUpdater interface {
	UpdateIP(ctx context.Context, domain model.Domain, account model.CredentialAccount, target *model.NotificationTarget) (IPReport, error)
}

// WebhookProber sends a test message to a notification target.
type WebhookProber interface {
	Probe(ctx context.Context, target model.NotificationTarget) error
}

var errNotConfigured = errors.New("collaborator not configured")
