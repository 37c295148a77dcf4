package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"dynroute53/internal/config"
)

const (
	ldapSearchTimeLimit = 30 // seconds, server side
	defaultGroupFilter  = "(|(member=%s)(uniqueMember=%s))"
	ldapDialTimeout     = 10 * time.Second
	memberOfAttr        = "memberOf"
)

var errLDAPUserNotFound = errors.New("ldap user not found or ambiguous")

type LDAPResult struct {
	Username string
	Email    string
	Groups   []string
}

// LDAPClient is a Directory backed by an LDAP server.
type LDAPClient struct {
	cfg config.LDAPConfig
}

func NewLDAPClient(cfg config.LDAPConfig) *LDAPClient {
	return &LDAPClient{cfg: cfg}
}

// Authenticate looks the user up with the service account, then binds as
// the user to check the password.
func (lc *LDAPClient) Authenticate(username, password string) (*LDAPResult, error) {
	conn, err := lc.connect()
	if err != nil {
		return nil, fmt.Errorf("ldap connect: %w", err)
	}
	defer conn.Close()

	if err := conn.Bind(lc.cfg.BindDN, lc.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("ldap service bind: %w", err)
	}

	entry, err := lc.findUser(conn, username)
	if err != nil {
		return nil, err
	}
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("ldap user bind: %w", err)
	}

	groups := entry.GetAttributeValues(memberOfAttr)
	if len(groups) == 0 {
		groups = lc.memberGroups(conn, entry)
	}

	return &LDAPResult{
		Username: entry.GetAttributeValue(lc.cfg.UsernameAttr),
		Email:    entry.GetAttributeValue(lc.cfg.EmailAttr),
		Groups:   groups,
	}, nil
}

func (lc *LDAPClient) findUser(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		lc.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, ldapSearchTimeLimit, false,
		fmt.Sprintf(lc.cfg.UserFilter, ldap.EscapeFilter(username)),
		[]string{"dn", lc.cfg.UsernameAttr, lc.cfg.EmailAttr, memberOfAttr},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(res.Entries) != 1 {
		return nil, fmt.Errorf("%w: %d results", errLDAPUserNotFound, len(res.Entries))
	}
	return res.Entries[0], nil
}

// memberGroups searches for groups listing the user, for servers without
// memberOf.  In the filter %s is the user DN and %u the login name.
func (lc *LDAPClient) memberGroups(conn *ldap.Conn, entry *ldap.Entry) []string {
	filter := groupFilter(lc.cfg.GroupFilter, entry.DN, entry.GetAttributeValue(lc.cfg.UsernameAttr))
	req := ldap.NewSearchRequest(
		lc.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"dn"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil
	}
	groups := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		groups = append(groups, e.DN)
	}
	return groups
}

func groupFilter(tmpl, userDN, login string) string {
	if tmpl == "" {
		tmpl = defaultGroupFilter
	}
	f := strings.ReplaceAll(tmpl, "%s", ldap.EscapeFilter(userDN))
	return strings.ReplaceAll(f, "%u", ldap.EscapeFilter(login))
}

// ResolveRole maps LDAP groups to roles using group_mapping.  The admin
// mapping wins over editor.  ok is false for a user in no mapped group.
func (lc *LDAPClient) ResolveRole(groups []string) (string, bool) {
	for _, role := range []string{RoleAdmin, RoleEditor} {
		mapped, found := lc.cfg.GroupMapping[role]
		if !found {
			continue
		}
		for _, g := range groups {
			if strings.EqualFold(g, mapped) {
				return role, true
			}
		}
	}
	return "", false
}

func (lc *LDAPClient) connect() (*ldap.Conn, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: lc.cfg.SkipVerify}
	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: ldapDialTimeout})}

	if strings.HasPrefix(lc.cfg.URL, "ldaps://") {
		return ldap.DialURL(lc.cfg.URL, append(opts, ldap.DialWithTLSConfig(tlsCfg))...)
	}

	conn, err := ldap.DialURL(lc.cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	if lc.cfg.StartTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}
	return conn, nil
}
