package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

type settingRow struct {
	Key          string    `db:"key"`
	Kind         string    `db:"kind"`
	Value        []byte    `db:"value"`
	DefaultValue []byte    `db:"default_value"`
	Description  string    `db:"description"`
	System       bool      `db:"is_system"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r settingRow) toModel() (model.Setting, error) {
	kind := model.SettingKind(r.Kind)
	v, err := model.DecodeSettingValue(kind, r.Value)
	if err != nil {
		return model.Setting{}, fmt.Errorf("setting %s value: %w", r.Key, err)
	}
	def, err := model.DecodeSettingValue(kind, r.DefaultValue)
	if err != nil {
		return model.Setting{}, fmt.Errorf("setting %s default: %w", r.Key, err)
	}
	return model.Setting{
		Key:         r.Key,
		Kind:        kind,
		Value:       v,
		Default:     def,
		Description: r.Description,
		System:      r.System,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const settingColumns = "key, kind, value, default_value, description, is_system, updated_at"

// SeedSetting inserts a missing key.  For an existing key the declaration
// is refreshed and the value is kept, unless the kind changed, in which
// case the old value cannot be read any more and the default replaces it.
func (db *DB) SeedSetting(ctx context.Context, s model.Setting) error {
	def, err := json.Marshal(s.Default)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, kind, value, default_value, description, is_system)
		 VALUES ($1, $2, $3, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET
		   value = CASE WHEN settings.kind = EXCLUDED.kind THEN settings.value ELSE EXCLUDED.value END,
		   kind = EXCLUDED.kind,
		   default_value = EXCLUDED.default_value,
		   description = EXCLUDED.description,
		   is_system = EXCLUDED.is_system`,
		s.Key, string(s.Kind), def, s.Description, s.System,
	)
	return err
}

func (db *DB) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var row settingRow
	err := db.conn.GetContext(ctx, &row, "SELECT "+settingColumns+" FROM settings WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) ListSettings(ctx context.Context) ([]model.Setting, error) {
	var rows []settingRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT "+settingColumns+" FROM settings ORDER BY key"); err != nil {
		return nil, err
	}
	out := make([]model.Setting, 0, len(rows))
	for _, r := range rows {
		s, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (db *DB) UpdateSettingValue(ctx context.Context, key string, v model.SettingValue) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx,
		"UPDATE settings SET value = $1, updated_at = NOW() WHERE key = $2", raw, key)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("setting %q not found", key))
}

func (db *DB) ResetSetting(ctx context.Context, key string) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE settings SET value = default_value, updated_at = NOW() WHERE key = $1", key)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("setting %q not found", key))
}
