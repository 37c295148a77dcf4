package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"dynroute53/internal/model"
	"dynroute53/internal/util"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"

	realm = `Basic realm="dynroute53", charset="UTF-8"`
)

// UserStore is the part of storage the authenticator needs.
type UserStore interface {
	AuthenticateUser(ctx context.Context, username, password string) (*model.User, error)
	UpsertLDAPUser(ctx context.Context, username, role string) (*model.User, error)
}

// Directory authenticates against an external directory.
type Directory interface {
	Authenticate(username, password string) (*LDAPResult, error)
	ResolveRole(groups []string) (string, bool)
}

// Authenticator checks HTTP Basic credentials.  With a directory configured
// the directory is tried first and only local admins may log in locally.
type Authenticator struct {
	users UserStore
	dir   Directory
	log   *zap.SugaredLogger
}

// NewAuthenticator builds an authenticator.  dir may be nil.
func NewAuthenticator(users UserStore, dir Directory, log *zap.SugaredLogger) *Authenticator {
	return &Authenticator{users: users, dir: dir, log: log}
}

// Authenticate returns the user for the credentials, or nil when they are
// not accepted.  An error means storage failed.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	if a.dir != nil {
		result, err := a.dir.Authenticate(username, password)
		if err != nil {
			a.log.Debugw("ldap authentication failed", "username", username, "err", err)
		} else if result != nil {
			role, allowed := a.dir.ResolveRole(result.Groups)
			if !allowed {
				a.log.Infow("ldap user not in any mapped group", "username", result.Username)
				return nil, nil
			}
			return a.users.UpsertLDAPUser(ctx, result.Username, role)
		}
	}

	u, err := a.users.AuthenticateUser(ctx, username, password)
	if err != nil || u == nil {
		return nil, err
	}
	if a.dir != nil && u.Role != RoleAdmin {
		a.log.Infow("local login refused while ldap is enabled", "username", u.Username)
		return nil, nil
	}
	return u, nil
}

// Middleware rejects requests without valid Basic credentials and attaches
// the authenticated Caller to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", realm)
			deny(w, http.StatusUnauthorized, "unauthorized", "credentials required")
			return
		}
		u, err := a.Authenticate(r.Context(), username, password)
		if err != nil {
			a.log.Errorw("authentication backend failed", "username", username, "err", err)
			deny(w, http.StatusInternalServerError, "internal", "authentication unavailable")
			return
		}
		if u == nil {
			w.Header().Set("WWW-Authenticate", realm)
			deny(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		ctx := WithCaller(r.Context(), Caller{
			Username: u.Username,
			Role:     u.Role,
			IP:       util.GetClientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin lets only admins through.  It must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFrom(r.Context()).IsAdmin() {
			deny(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": msg})
}
