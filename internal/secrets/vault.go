// Package secrets resolves "vault:" configuration references against a
// HashiCorp Vault KV-v2 engine.
//
// A reference has the form vault:<mount>/<path>#<key>, for example
// vault:secret/dynroute53/db#dsn reads key "dsn" of secret "dynroute53/db"
// in the KV-v2 engine mounted at "secret".  Vault address and token come
// from the usual VAULT_ADDR and VAULT_TOKEN environment variables.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

type Ref struct {
	Mount string
	Path  string
	Key   string
}

// ParseRef splits a vault: reference into its parts.
func ParseRef(ref string) (Ref, error) {
	rest, ok := strings.CutPrefix(ref, "vault:")
	if !ok {
		return Ref{}, fmt.Errorf("not a vault reference: %q", ref)
	}
	loc, key, ok := strings.Cut(rest, "#")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("vault reference %q has no #key", ref)
	}
	mount, path, ok := strings.Cut(strings.Trim(loc, "/"), "/")
	if !ok || mount == "" || path == "" {
		return Ref{}, fmt.Errorf("vault reference %q needs <mount>/<path>", ref)
	}
	return Ref{Mount: mount, Path: path, Key: key}, nil
}

// Client is safe for concurrent use.  Each secret path is read at most once.
type Client struct {
	api *vault.Client

	mu    sync.Mutex
	cache map[string]map[string]any
}

func New() (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}
	return &Client{api: api, cache: make(map[string]map[string]any)}, nil
}

func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cacheKey := r.Mount + "/" + r.Path
	data, ok := c.cache[cacheKey]
	if !ok {
		secret, err := c.api.KVv2(r.Mount).Get(ctx, r.Path)
		if err != nil {
			return "", fmt.Errorf("vault read %s: %w", cacheKey, err)
		}
		data = secret.Data
		c.cache[cacheKey] = data
	}

	v, ok := data[r.Key].(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s has no string key %q", cacheKey, r.Key)
	}
	return v, nil
}
