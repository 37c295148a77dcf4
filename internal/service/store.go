package service

import (
	"context"
	"time"

	"dynroute53/internal/model"
)

// The repositories below are implemented by internal/database (PostgreSQL)
// and internal/memstore.  Get methods return (nil, nil) for a missing row.
// Writes report integrity problems as apperr kinds: a write referencing a
// missing row is NotFound, a delete of a referenced row is Conflict.

type AccountRepository interface {
	ListAccounts(ctx context.Context) ([]model.CredentialAccount, error)
	GetAccount(ctx context.Context, id int64) (*model.CredentialAccount, error)
	CreateAccount(ctx context.Context, a *model.CredentialAccount) error
	DeleteAccount(ctx context.Context, id int64) error
}

type TargetRepository interface {
	ListTargets(ctx context.Context) ([]model.NotificationTarget, error)
	GetTarget(ctx context.Context, id int64) (*model.NotificationTarget, error)
	CreateTarget(ctx context.Context, t *model.NotificationTarget) error
	UpdateTarget(ctx context.Context, t *model.NotificationTarget) error
	DeleteTarget(ctx context.Context, id int64) error
}

type ZoneRepository interface {
	// ReplaceZones swaps the whole cached set of an account in one step.
	ReplaceZones(ctx context.Context, accountID int64, zones []model.Zone) error
	ListZones(ctx context.Context, accountID int64) ([]model.Zone, error)
}

type DomainRepository interface {
	ListDomains(ctx context.Context) ([]model.Domain, error)
	GetDomain(ctx context.Context, id int64) (*model.Domain, error)
	CreateDomain(ctx context.Context, d *model.Domain) error
	// UpdateDomain writes every operator-owned field.  LastIP and
	// LastUpdated are left as stored.
	UpdateDomain(ctx context.Context, d *model.Domain) error
	DeleteDomain(ctx context.Context, id int64) error
	RecordIP(ctx context.Context, id int64, ip string, at time.Time) error
}

type SettingRepository interface {
	// SeedSetting inserts a missing key, or refreshes kind, default,
	// description and system flag of an existing one.  The current value
	// of an existing key is kept.
	SeedSetting(ctx context.Context, s model.Setting) error
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	ListSettings(ctx context.Context) ([]model.Setting, error)
	UpdateSettingValue(ctx context.Context, key string, v model.SettingValue) error
	ResetSetting(ctx context.Context, key string) error
}

type AuditRepository interface {
	LogAudit(ctx context.Context, e model.AuditEntry) error
	ListAuditLog(ctx context.Context, limit, offset int) ([]model.AuditEntry, int, error)
}

// UserRepository manages login accounts.  Passwords are hashed by the
// implementation.  CreateUser reports a taken username as Conflict.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, username, password, role string) error
	// CreateFirstUser creates the user only while no user exists and
	// reports whether it did.
	CreateFirstUser(ctx context.Context, username, password, role string) (bool, error)
	UpdateUserPassword(ctx context.Context, id int64, password string) error
	SetUserRole(ctx context.Context, id int64, role string) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// Store is everything the core persists.
type Store interface {
	AccountRepository
	TargetRepository
	ZoneRepository
	DomainRepository
	SettingRepository
	AuditRepository
	UserRepository
	Ping(ctx context.Context) error
}
