package database

import (
	"context"
	"database/sql"
	"errors"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

const targetColumns = "id, name, webhook_url, active, created_at, updated_at"

func (db *DB) ListTargets(ctx context.Context) ([]model.NotificationTarget, error) {
	targets := []model.NotificationTarget{}
	err := db.conn.SelectContext(ctx, &targets, "SELECT "+targetColumns+" FROM notification_targets ORDER BY id")
	return targets, err
}

func (db *DB) GetTarget(ctx context.Context, id int64) (*model.NotificationTarget, error) {
	t := &model.NotificationTarget{}
	err := db.conn.GetContext(ctx, t, "SELECT "+targetColumns+" FROM notification_targets WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) CreateTarget(ctx context.Context, t *model.NotificationTarget) error {
	return db.conn.QueryRowxContext(ctx,
		`INSERT INTO notification_targets (name, webhook_url, active)
		 VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		t.Name, t.WebhookURL, t.Active,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (db *DB) UpdateTarget(ctx context.Context, t *model.NotificationTarget) error {
	err := db.conn.QueryRowxContext(ctx,
		`UPDATE notification_targets SET name = $1, webhook_url = $2, active = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING created_at, updated_at`,
		t.Name, t.WebhookURL, t.Active, t.ID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("notification target %d not found", t.ID)
	}
	return err
}

func (db *DB) DeleteTarget(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM notification_targets WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("notification target %d is used by a domain", id)
	}
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("notification target %d not found", id))
}
