// Package memstore keeps all state in process memory.  It backs the
// "memory" storage driver and the core's tests.  A single lock serializes
// writes, so integrity checks and the writes they guard never interleave.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

type Store struct {
	mu sync.RWMutex

	seq      map[string]int64
	accounts map[int64]model.CredentialAccount
	targets  map[int64]model.NotificationTarget
	zones    map[int64][]model.Zone
	domains  map[int64]model.Domain
	settings map[string]model.Setting
	audit    []model.AuditEntry
	users    map[string]model.User

	now func() time.Time
}

func New() *Store {
	return &Store{
		seq:      make(map[string]int64),
		accounts: make(map[int64]model.CredentialAccount),
		targets:  make(map[int64]model.NotificationTarget),
		zones:    make(map[int64][]model.Zone),
		domains:  make(map[int64]model.Domain),
		settings: make(map[string]model.Setting),
		users:    make(map[string]model.User),
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// id returns the next id of table.  Each table counts from 1 on its own.
func (s *Store) id(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func sortedByID[T any](m map[int64]T) []T {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

/* credential accounts */

func (s *Store) ListAccounts(context.Context) ([]model.CredentialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.accounts), nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (*model.CredentialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) CreateAccount(_ context.Context, a *model.CredentialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id("accounts")
	a.CreatedAt = s.now().UTC()
	s.accounts[a.ID] = *a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return apperr.NotFound("credential account %d not found", id)
	}
	for _, d := range s.domains {
		if d.CredentialAccountID == id {
			return apperr.Conflict("credential account %d is used by domain %d", id, d.ID)
		}
	}
	delete(s.accounts, id)
	delete(s.zones, id)
	return nil
}

/* notification targets */

func (s *Store) ListTargets(context.Context) ([]model.NotificationTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.targets), nil
}

func (s *Store) GetTarget(_ context.Context, id int64) (*model.NotificationTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) CreateTarget(_ context.Context, t *model.NotificationTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id("targets")
	t.CreatedAt = s.now().UTC()
	t.UpdatedAt = t.CreatedAt
	s.targets[t.ID] = *t
	return nil
}

func (s *Store) UpdateTarget(_ context.Context, t *model.NotificationTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.targets[t.ID]
	if !ok {
		return apperr.NotFound("notification target %d not found", t.ID)
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = s.now().UTC()
	s.targets[t.ID] = *t
	return nil
}

func (s *Store) DeleteTarget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[id]; !ok {
		return apperr.NotFound("notification target %d not found", id)
	}
	for _, d := range s.domains {
		if d.NotificationTargetID != nil && *d.NotificationTargetID == id {
			return apperr.Conflict("notification target %d is used by domain %d", id, d.ID)
		}
	}
	delete(s.targets, id)
	return nil
}

/* zone cache */

func (s *Store) ReplaceZones(_ context.Context, accountID int64, zones []model.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return apperr.NotFound("credential account %d not found", accountID)
	}
	s.zones[accountID] = slices.Clone(zones)
	return nil
}

func (s *Store) ListZones(_ context.Context, accountID int64) ([]model.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.zones[accountID])
	slices.SortFunc(out, func(a, b model.Zone) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

/* domains */

func cloneDomain(d model.Domain) model.Domain {
	if d.NotificationTargetID != nil {
		v := *d.NotificationTargetID
		d.NotificationTargetID = &v
	}
	if d.LastIP != nil {
		v := *d.LastIP
		d.LastIP = &v
	}
	if d.LastUpdated != nil {
		v := *d.LastUpdated
		d.LastUpdated = &v
	}
	return d
}

func (s *Store) ListDomains(context.Context) ([]model.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedByID(s.domains)
	for i := range out {
		out[i] = cloneDomain(out[i])
	}
	return out, nil
}

func (s *Store) GetDomain(_ context.Context, id int64) (*model.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[id]
	if !ok {
		return nil, nil
	}
	d = cloneDomain(d)
	return &d, nil
}

// checkRefs must be called with the write lock held.
func (s *Store) checkRefs(d *model.Domain) error {
	if _, ok := s.accounts[d.CredentialAccountID]; !ok {
		return apperr.NotFound("credential account %d not found", d.CredentialAccountID)
	}
	if d.NotificationTargetID != nil {
		if _, ok := s.targets[*d.NotificationTargetID]; !ok {
			return apperr.NotFound("notification target %d not found", *d.NotificationTargetID)
		}
	}
	return nil
}

func (s *Store) CreateDomain(_ context.Context, d *model.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(d); err != nil {
		return err
	}
	d.ID = s.id("domains")
	d.CreatedAt = s.now().UTC()
	d.UpdatedAt = d.CreatedAt
	d.LastIP = nil
	d.LastUpdated = nil
	s.domains[d.ID] = cloneDomain(*d)
	return nil
}

func (s *Store) UpdateDomain(_ context.Context, d *model.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.domains[d.ID]
	if !ok {
		return apperr.NotFound("domain %d not found", d.ID)
	}
	if err := s.checkRefs(d); err != nil {
		return err
	}
	next := cloneDomain(*d)
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now().UTC()
	next.LastIP = cur.LastIP
	next.LastUpdated = cur.LastUpdated
	s.domains[d.ID] = next

	d.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *Store) DeleteDomain(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[id]; !ok {
		return apperr.NotFound("domain %d not found", id)
	}
	delete(s.domains, id)
	return nil
}

func (s *Store) RecordIP(_ context.Context, id int64, ip string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[id]
	if !ok {
		return apperr.NotFound("domain %d not found", id)
	}
	d.LastIP = &ip
	d.LastUpdated = &at
	s.domains[id] = d
	return nil
}

/* settings */

func (s *Store) SeedSetting(_ context.Context, st model.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.settings[st.Key]; ok && cur.Kind == st.Kind {
		st.Value = cur.Value
		st.UpdatedAt = cur.UpdatedAt
	} else {
		st.UpdatedAt = s.now().UTC()
	}
	s.settings[st.Key] = st
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (*model.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) ListSettings(context.Context) ([]model.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b model.Setting) int { return cmp.Compare(a.Key, b.Key) })
	return out, nil
}

func (s *Store) UpdateSettingValue(_ context.Context, key string, v model.SettingValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[key]
	if !ok {
		return apperr.NotFound("setting %q not found", key)
	}
	st.Value = v
	st.UpdatedAt = s.now().UTC()
	s.settings[key] = st
	return nil
}

func (s *Store) ResetSetting(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[key]
	if !ok {
		return apperr.NotFound("setting %q not found", key)
	}
	st.Value = st.Default
	st.UpdatedAt = s.now().UTC()
	s.settings[key] = st
	return nil
}

/* audit */

func (s *Store) LogAudit(_ context.Context, e model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.audit) + 1)
	e.CreatedAt = s.now().UTC()
	s.audit = append(s.audit, e)
	return nil
}

func (s *Store) ListAuditLog(_ context.Context, limit, offset int) ([]model.AuditEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.audit)
	if offset < 0 || offset >= total {
		return nil, total, nil
	}
	var out []model.AuditEntry
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, total, nil
}

/* users */

func (s *Store) HasUsers(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) > 0, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return cmp.Compare(a.Username, b.Username) })
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(_ context.Context, username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(username, string(hash), role)
}

func (s *Store) CreateFirstUser(_ context.Context, username, password, role string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) > 0 {
		return false, nil
	}
	return true, s.addUser(username, string(hash), role)
}

// addUser requires s.mu held for writing.
func (s *Store) addUser(username, hash, role string) error {
	if _, ok := s.users[username]; ok {
		return apperr.Conflict("user %q already exists", username)
	}
	now := s.now().UTC()
	s.users[username] = model.User{
		ID: s.id("users"), Username: username, PassHash: hash, Role: role,
		Active: true, AuthSource: "local", CreatedAt: now, UpdatedAt: now,
	}
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.editUser(id, func(u *model.User) { u.PassHash = string(hash) })
}

func (s *Store) SetUserRole(_ context.Context, id int64, role string) error {
	return s.editUser(id, func(u *model.User) { u.Role = role })
}

func (s *Store) SetUserActive(_ context.Context, id int64, active bool) error {
	return s.editUser(id, func(u *model.User) { u.Active = active })
}

func (s *Store) editUser(id int64, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.users {
		if u.ID == id {
			fn(&u)
			u.UpdatedAt = s.now().UTC()
			s.users[name] = u
			return nil
		}
	}
	return apperr.NotFound("user %d not found", id)
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.users {
		if u.ID == id {
			delete(s.users, name)
			return nil
		}
	}
	return apperr.NotFound("user %d not found", id)
}

func (s *Store) AuthenticateUser(ctx context.Context, username, password string) (*model.User, error) {
	u, _ := s.GetUserByUsername(ctx, username)
	if u == nil || !u.Active || u.PassHash == "" {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)) != nil {
		return nil, nil
	}
	return u, nil
}

func (s *Store) UpsertLDAPUser(_ context.Context, username, role string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	u, ok := s.users[username]
	if !ok {
		u = model.User{ID: s.id("users"), Username: username, Active: true, CreatedAt: now}
	}
	u.Role = role
	u.AuthSource = "ldap"
	u.UpdatedAt = now
	s.users[username] = u
	return &u, nil
}
