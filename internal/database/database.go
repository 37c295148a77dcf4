// Package database is the PostgreSQL implementation of the core's
// repositories.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL Driver
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type DB struct {
	conn *sqlx.DB
}

func Open(dsn string, migrationsFS fs.FS) (*DB, error) {
	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn, migrationsFS); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &DB{conn: conn}, nil
}

// New wraps an open handle without running migrations.
func New(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

func runMigrations(conn *sqlx.DB, migrationsFS fs.FS) error {
	driver, err := postgres.WithInstance(conn.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	var m *migrate.Migrate
	if migrationsFS != nil {
		d, err := iofs.New(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("could not create iofs source: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", d, "postgres", driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		// Fallback to file system (useful for dev without build)
		m, err = migrate.NewWithDatabaseInstance("file://db/migrations", "postgres", driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("an error occurred while syncing the database: %w", err)
	}

	zap.S().Info("database migrations applied")
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) HasUsers(ctx context.Context) (bool, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM users")
	return count > 0, err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// requireRow turns a write that touched no row into missing.
func requireRow(res sql.Result, missing error) error {
	n, rerr := res.RowsAffected()
	if rerr != nil {
		return rerr
	}
	if n == 0 {
		return missing
	}
	return nil
}
