package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

const domainColumns = `id, name, zone_id, record_type, ttl, active, account_id, target_id,
	last_ip, last_updated, created_at, updated_at`

func (db *DB) ListDomains(ctx context.Context) ([]model.Domain, error) {
	domains := []model.Domain{}
	err := db.conn.SelectContext(ctx, &domains, "SELECT "+domainColumns+" FROM domains ORDER BY id")
	return domains, err
}

func (db *DB) GetDomain(ctx context.Context, id int64) (*model.Domain, error) {
	d := &model.Domain{}
	err := db.conn.GetContext(ctx, d, "SELECT "+domainColumns+" FROM domains WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (db *DB) CreateDomain(ctx context.Context, d *model.Domain) error {
	err := db.conn.QueryRowxContext(ctx,
		`INSERT INTO domains (name, zone_id, record_type, ttl, active, account_id, target_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`,
		d.Name, d.ZoneID, d.RecordType, d.TTL, d.Active, d.CredentialAccountID, d.NotificationTargetID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.NotFound("credential account or notification target no longer exists")
	}
	d.LastIP = nil
	d.LastUpdated = nil
	return err
}

func (db *DB) UpdateDomain(ctx context.Context, d *model.Domain) error {
	err := db.conn.QueryRowxContext(ctx,
		`UPDATE domains SET name = $1, zone_id = $2, record_type = $3, ttl = $4, active = $5,
		        account_id = $6, target_id = $7, updated_at = NOW()
		 WHERE id = $8 RETURNING updated_at`,
		d.Name, d.ZoneID, d.RecordType, d.TTL, d.Active, d.CredentialAccountID, d.NotificationTargetID, d.ID,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("domain %d not found", d.ID)
	}
	if isForeignKeyViolation(err) {
		return apperr.NotFound("credential account or notification target no longer exists")
	}
	return err
}

func (db *DB) DeleteDomain(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM domains WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("domain %d not found", id))
}

func (db *DB) RecordIP(ctx context.Context, id int64, ip string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE domains SET last_ip = $1, last_updated = $2 WHERE id = $3", ip, at, id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("domain %d not found", id))
}
