package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN == "" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DYNROUTE53_SERVER__PORT", "7070")
	t.Setenv("DYNROUTE53_STORAGE__DRIVER", "memory")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "" {
		t.Errorf("memory driver should not get a default dsn, got %q", cfg.Storage.DSN)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad driver", "storage:\n  driver: sqlite\n", "Driver"},
		{"bad level", "log:\n  level: loud\n", "Level"},
		{"ldap without url", "ldap:\n  enabled: true\n", "ldap.url"},
		{"ldap without mapping", "ldap:\n  enabled: true\n  url: ldaps://dc\n  bind_dn: cn=svc\n  bind_password: pw\n  base_dn: dc=example\n", "group_mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadLDAPDefaults(t *testing.T) {
	content := `ldap:
  enabled: true
  url: ldaps://dc.example.com
  bind_dn: cn=svc,dc=example,dc=com
  bind_password: secret
  base_dn: dc=example,dc=com
  group_mapping:
    admin: cn=dns-admins,dc=example,dc=com
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LDAP.UserFilter != "(sAMAccountName=%s)" || cfg.LDAP.UsernameAttr != "sAMAccountName" {
		t.Errorf("ldap defaults not applied: %+v", cfg.LDAP)
	}
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DSN: "vault:secret/dynroute53#dsn"}}
	if !cfg.NeedsSecrets() {
		t.Fatal("NeedsSecrets() = false")
	}
	err := cfg.ResolveSecrets(context.Background(), fakeResolver{"vault:secret/dynroute53#dsn": "postgres://x"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DSN != "postgres://x" {
		t.Errorf("dsn = %q", cfg.Storage.DSN)
	}
	if cfg.NeedsSecrets() {
		t.Error("references left after resolution")
	}

	cfg.LDAP.BindPassword = "vault:secret/ldap#password"
	if err := cfg.ResolveSecrets(context.Background(), fakeResolver{}); err == nil {
		t.Error("expected resolution error")
	}
}

func TestSecretsResolvedBeforeValidation(t *testing.T) {
	content := `storage:
  driver: postgres
  dsn: vault:secret/dynroute53/db#dsn
`
	if _, err := Load(writeConfig(t, content)); err == nil || !strings.Contains(err.Error(), "vault:") {
		t.Fatalf("Load with a vault reference: err = %v, want unresolved reference error", err)
	}

	cfg, err := Read(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := cfg.ResolveSecrets(context.Background(), fakeResolver{"vault:secret/dynroute53/db#dsn": "postgres://db"}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after resolution: %v", err)
	}
	if cfg.Storage.DSN != "postgres://db" {
		t.Errorf("dsn = %q", cfg.Storage.DSN)
	}
}
