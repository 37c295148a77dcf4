package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/model"
)

const MinPasswordLen = 6

// UserPatch is a partial user update.  Nil fields are left alone.
type UserPatch struct {
	Role     *string
	Active   *bool
	Password *string
}

// Users is the admin view of login accounts.  Nobody can deactivate,
// demote or delete themselves.
type Users struct {
	repo  UserRepository
	audit *Auditor
	log   *zap.SugaredLogger
}

func NewUsers(repo UserRepository, audit *Auditor, log *zap.SugaredLogger) *Users {
	return &Users{repo: repo, audit: audit, log: log}
}

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Users) Create(ctx context.Context, username, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if role == "" {
		role = auth.RoleEditor
	}
	switch {
	case username == "":
		return nil, apperr.Validation("username is required")
	case len(password) < MinPasswordLen:
		return nil, apperr.Validation("password must be at least %d characters", MinPasswordLen)
	case !validRole(role):
		return nil, apperr.Validation("role must be %s or %s", auth.RoleAdmin, auth.RoleEditor)
	}

	if err := s.repo.CreateUser(ctx, username, password, role); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %q not found", username)
	}
	s.audit.Record(ctx, "create_user", "user", u.ID, "username="+username+" role="+role)
	s.log.Infow("user created", "username", username, "role", role, "caller", auth.CallerFrom(ctx).Username)
	return u, nil
}

func (s *Users) Update(ctx context.Context, id int64, p UserPatch) (*model.User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	self := u.Username == auth.CallerFrom(ctx).Username

	if p.Active != nil && !*p.Active && self {
		return nil, apperr.Validation("cannot deactivate your own account")
	}
	if p.Role != nil {
		if !validRole(*p.Role) {
			return nil, apperr.Validation("role must be %s or %s", auth.RoleAdmin, auth.RoleEditor)
		}
		if self && *p.Role != u.Role {
			return nil, apperr.Validation("cannot change your own role")
		}
	}
	if p.Password != nil {
		if u.AuthSource == "ldap" {
			return nil, apperr.Validation("user %q signs in through the directory", u.Username)
		}
		if len(*p.Password) < MinPasswordLen {
			return nil, apperr.Validation("password must be at least %d characters", MinPasswordLen)
		}
	}

	var changed []string
	if p.Role != nil && *p.Role != u.Role {
		if err := s.repo.SetUserRole(ctx, id, *p.Role); err != nil {
			return nil, err
		}
		changed = append(changed, "role="+*p.Role)
	}
	if p.Active != nil && *p.Active != u.Active {
		if err := s.repo.SetUserActive(ctx, id, *p.Active); err != nil {
			return nil, err
		}
		if *p.Active {
			changed = append(changed, "active=true")
		} else {
			changed = append(changed, "active=false")
		}
	}
	if p.Password != nil {
		if err := s.repo.UpdateUserPassword(ctx, id, *p.Password); err != nil {
			return nil, err
		}
		changed = append(changed, "password")
	}

	if len(changed) > 0 {
		s.audit.Record(ctx, "update_user", "user", id, "username="+u.Username+" "+strings.Join(changed, " "))
		s.log.Infow("user updated", "username", u.Username, "changed", changed, "caller", auth.CallerFrom(ctx).Username)
	}
	return s.get(ctx, id)
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	u, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == auth.CallerFrom(ctx).Username {
		return apperr.Validation("cannot delete your own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "delete_user", "user", id, "username="+u.Username)
	s.log.Infow("user deleted", "username", u.Username, "caller", auth.CallerFrom(ctx).Username)
	return nil
}

func (s *Users) get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return u, nil
}

func validRole(role string) bool {
	return role == auth.RoleAdmin || role == auth.RoleEditor
}
