package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/metrics"
	"dynroute53/internal/model"
)

// Settings is the setting store.  Keys exist only once seeded; there is no
// delete.
type Settings struct {
	repo   SettingRepository
	schema *Schema
	audit  *Auditor
	log    *zap.SugaredLogger
}

func NewSettings(repo SettingRepository, schema *Schema, audit *Auditor, log *zap.SugaredLogger) *Settings {
	return &Settings{repo: repo, schema: schema, audit: audit, log: log}
}

// Seed writes every schema entry.  Values set by an operator survive.
func (s *Settings) Seed(ctx context.Context) error {
	for _, e := range s.schema.Entries() {
		err := s.repo.SeedSetting(ctx, model.Setting{
			Key:         e.Key,
			Kind:        e.Kind,
			Value:       e.Default,
			Default:     e.Default,
			Description: e.Description,
			System:      e.System,
		})
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", e.Key, err)
		}
	}
	s.log.Infow("settings seeded", "keys", len(s.schema.Entries()))
	return nil
}

func (s *Settings) Get(ctx context.Context, key string) (*model.Setting, error) {
	st, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperr.NotFound("setting %q not found", key)
	}
	return st, nil
}

func (s *Settings) GetAll(ctx context.Context) ([]model.Setting, error) {
	return s.repo.ListSettings(ctx)
}

// Set replaces the current value of key.  The value must have the key's
// declared shape.
func (s *Settings) Set(ctx context.Context, key string, v model.SettingValue) (*model.Setting, error) {
	cur, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.entryFor(cur).Check(v); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSettingValue(ctx, key, v); err != nil {
		return nil, err
	}
	metrics.SettingWritesTotal.WithLabelValues(key, "set").Inc()
	s.audit.Record(ctx, "set_setting", "setting", key, "")
	s.log.Infow("setting updated", "key", key, "caller", auth.CallerFrom(ctx).Username)
	return s.Get(ctx, key)
}

// SetJSON decodes raw according to the key's declared kind and sets it.
func (s *Settings) SetJSON(ctx context.Context, key string, raw []byte) (*model.Setting, error) {
	cur, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	e := s.entryFor(cur)
	v, err := model.DecodeSettingValue(e.Kind, raw)
	if err != nil {
		return nil, apperr.Validation("setting %s: %v", key, err)
	}
	return s.Set(ctx, key, v)
}

// ResetToDefault restores the default value.  Repeated calls are harmless.
func (s *Settings) ResetToDefault(ctx context.Context, key string) (*model.Setting, error) {
	if err := s.repo.ResetSetting(ctx, key); err != nil {
		return nil, err
	}
	metrics.SettingWritesTotal.WithLabelValues(key, "reset").Inc()
	s.audit.Record(ctx, "reset_setting", "setting", key, "")
	s.log.Infow("setting reset", "key", key, "caller", auth.CallerFrom(ctx).Username)
	return s.Get(ctx, key)
}

// entryFor returns the schema entry for a stored setting.  Keys that were
// seeded by an older schema fall back to a bare kind check.
func (s *Settings) entryFor(st *model.Setting) SchemaEntry {
	if e, ok := s.schema.Lookup(st.Key); ok {
		return e
	}
	return SchemaEntry{Key: st.Key, Kind: st.Kind}
}
