package database

import (
	"context"
	"database/sql"
	"errors"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

const accountColumns = "id, name, access_key_id, secret_access_key, region, created_at"

func (db *DB) ListAccounts(ctx context.Context) ([]model.CredentialAccount, error) {
	accounts := []model.CredentialAccount{}
	err := db.conn.SelectContext(ctx, &accounts, "SELECT "+accountColumns+" FROM credential_accounts ORDER BY id")
	return accounts, err
}

func (db *DB) GetAccount(ctx context.Context, id int64) (*model.CredentialAccount, error) {
	a := &model.CredentialAccount{}
	err := db.conn.GetContext(ctx, a, "SELECT "+accountColumns+" FROM credential_accounts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (db *DB) CreateAccount(ctx context.Context, a *model.CredentialAccount) error {
	return db.conn.QueryRowxContext(ctx,
		`INSERT INTO credential_accounts (name, access_key_id, secret_access_key, region)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		a.Name, a.AccessKeyID, a.SecretAccessKey, a.Region,
	).Scan(&a.ID, &a.CreatedAt)
}

// DeleteAccount removes the account; its cached zones go with it.
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM credential_accounts WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return apperr.Conflict("credential account %d is used by a domain", id)
	}
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("credential account %d not found", id))
}
