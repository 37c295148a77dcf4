package database

import (
	"context"

	"dynroute53/internal/model"
)

func (db *DB) LogAudit(ctx context.Context, entry model.AuditEntry) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO audit_log (username, action, entity, entity_id, detail, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Username, entry.Action, entry.Entity, entry.EntityID, entry.Detail, entry.IPAddress,
	)
	return err
}

func (db *DB) ListAuditLog(ctx context.Context, limit, offset int) ([]model.AuditEntry, int, error) {
	var total int
	if err := db.conn.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_log"); err != nil {
		return nil, 0, err
	}

	entries := []model.AuditEntry{}
	err := db.conn.SelectContext(ctx, &entries,
		`SELECT id, username, action, entity, entity_id, detail, ip_address, created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
