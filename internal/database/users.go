package database

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

const (
	bcryptCost  = 12
	userColumns = "id, username, pass_hash, role, active, auth_source, created_at, updated_at"
)

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := db.conn.GetContext(ctx, u, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.conn.GetContext(ctx, u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := db.conn.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY username")
	return users, err
}

func (db *DB) CreateUser(ctx context.Context, username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO users (username, pass_hash, role) VALUES ($1, $2, $3)",
		username, string(hash), role,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("user %q already exists", username)
	}
	return err
}

// CreateFirstUser inserts the user only if the table is empty.  The table
// lock makes concurrent callers queue behind the first one, which then
// sees the row it inserted.
func (db *DB) CreateFirstUser(ctx context.Context, username, password, role string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return false, err
	}
	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, pass_hash, role) VALUES ($1, $2, $3)",
		username, string(hash), role,
	); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (db *DB) UpdateUserPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET pass_hash = $1, updated_at = NOW() WHERE id = $2", string(hash), id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("user %d not found", id))
}

func (db *DB) SetUserRole(ctx context.Context, id int64, role string) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2", role, id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("user %d not found", id))
}

func (db *DB) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET active = $1, updated_at = NOW() WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("user %d not found", id))
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res, apperr.NotFound("user %d not found", id))
}

// AuthenticateUser returns nil, nil for an unknown, inactive or LDAP-backed
// user and for a wrong password.
func (db *DB) AuthenticateUser(ctx context.Context, username, password string) (*model.User, error) {
	u, err := db.GetUserByUsername(ctx, username)
	if err != nil || u == nil || !u.Active || u.PassHash == "" {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)); err != nil {
		return nil, nil
	}
	return u, nil
}

// UpsertLDAPUser records a directory user after a successful bind and
// returns the stored row.
func (db *DB) UpsertLDAPUser(ctx context.Context, username, role string) (*model.User, error) {
	u := &model.User{}
	err := db.conn.GetContext(ctx, u,
		`INSERT INTO users (username, pass_hash, role, auth_source)
		 VALUES ($1, '', $2, 'ldap')
		 ON CONFLICT (username) DO UPDATE SET
		   role = EXCLUDED.role, auth_source = 'ldap', updated_at = NOW()
		 RETURNING `+userColumns,
		username, role,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
