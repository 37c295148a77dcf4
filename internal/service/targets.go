package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/model"
)

var webhookPattern = regexp.MustCompile(`^https://hooks\.slack\.com/services/.+$`)

type TargetPatch struct {
	Name       *string
	WebhookURL *string
	Active     *bool
}

// Targets is the notification target store.
type Targets struct {
	repo   TargetRepository
	prober WebhookProber
	audit  *Auditor
	log    *zap.SugaredLogger
}

// NewTargets builds the store.  prober may be nil, in which case Test fails
// with an Upstream error.
func NewTargets(repo TargetRepository, prober WebhookProber, audit *Auditor, log *zap.SugaredLogger) *Targets {
	return &Targets{repo: repo, prober: prober, audit: audit, log: log}
}

func (s *Targets) List(ctx context.Context) ([]model.NotificationTarget, error) {
	return s.repo.ListTargets(ctx)
}

func (s *Targets) Create(ctx context.Context, name, webhookURL string) (*model.NotificationTarget, error) {
	t := &model.NotificationTarget{
		Name:       strings.TrimSpace(name),
		WebhookURL: strings.TrimSpace(webhookURL),
		Active:     true,
	}
	if err := checkTarget(t); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTarget(ctx, t); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "create_target", "notification_target", t.ID, "name="+t.Name)
	s.log.Infow("notification target created", "target_id", t.ID, "caller", auth.CallerFrom(ctx).Username)
	return t, nil
}

func (s *Targets) Update(ctx context.Context, id int64, p TargetPatch) (*model.NotificationTarget, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.WebhookURL != nil {
		t.WebhookURL = strings.TrimSpace(*p.WebhookURL)
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if err := checkTarget(t); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTarget(ctx, t); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "update_target", "notification_target", t.ID, "")
	s.log.Infow("notification target updated", "target_id", t.ID, "active", t.Active, "caller", auth.CallerFrom(ctx).Username)
	return t, nil
}

// Delete fails with Conflict while a domain references the target.
func (s *Targets) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTarget(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "delete_target", "notification_target", id, "")
	s.log.Infow("notification target deleted", "target_id", id, "caller", auth.CallerFrom(ctx).Username)
	return nil
}

// Test asks the webhook prober to deliver a test message.  A nil error
// means the probe passed.
func (s *Targets) Test(ctx context.Context, id int64) error {
	t, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if s.prober == nil {
		return apperr.Upstream(errNotConfigured, "webhook probe unavailable")
	}
	if err := s.prober.Probe(ctx, *t); err != nil {
		s.log.Warnw("webhook probe failed", "target_id", id, "err", err)
		return apperr.Upstream(err, "webhook probe failed")
	}
	return nil
}

func (s *Targets) get(ctx context.Context, id int64) (*model.NotificationTarget, error) {
	t, err := s.repo.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("notification target %d not found", id)
	}
	return t, nil
}

func checkTarget(t *model.NotificationTarget) error {
	if t.Name == "" {
		return apperr.Validation("name is required")
	}
	if !webhookPattern.MatchString(t.WebhookURL) {
		return apperr.Validation("webhook url must match https://hooks.slack.com/services/...")
	}
	return nil
}
