package database

import (
	"context"
	"database/sql"
	"errors"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

// ReplaceZones swaps the account's cached zones in one transaction.  The
// account row is locked first, which serializes concurrent refreshes of one
// account and keeps a delete from racing the insert.
func (db *DB) ReplaceZones(ctx context.Context, accountID int64, zones []model.Zone) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	err = tx.QueryRowxContext(ctx, "SELECT id FROM credential_accounts WHERE id = $1 FOR UPDATE", accountID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("credential account %d not found", accountID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM zones WHERE account_id = $1", accountID); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO zones (account_id, zone_id, name, record_count, comment, private, refreshed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, z := range zones {
		if _, err := stmt.ExecContext(ctx, accountID, z.ID, z.Name, z.RecordCount, z.Comment, z.Private, z.RefreshedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *DB) ListZones(ctx context.Context, accountID int64) ([]model.Zone, error) {
	zones := []model.Zone{}
	err := db.conn.SelectContext(ctx, &zones,
		`SELECT zone_id, name, record_count, comment, private, account_id, refreshed_at
		 FROM zones WHERE account_id = $1 ORDER BY name`, accountID)
	return zones, err
}
