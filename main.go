package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dynroute53/internal/auth"
	"dynroute53/internal/config"
	"dynroute53/internal/logger"
	"dynroute53/internal/secrets"
	"dynroute53/internal/server"
	"dynroute53/internal/service"
)

var version = "dev"

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "serve" || args[0] == "useradd") {
		cmd, args = args[0], args[1:]
	}

	// Replaced by the configured logger once the config is loaded.
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "useradd":
		err = runUserAdd(ctx, args)
	default:
		err = runServe(ctx, args)
	}
	if err != nil {
		stop()
		zap.S().Fatalw("command failed", "cmd", cmd, "err", err)
	}
}

func loadConfig(ctx context.Context, path string) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.NeedsSecrets() {
		vault, err := secrets.New()
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.ResolveSecrets(ctx, vault); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lg, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	_ = fs.Parse(args)

	cfg, lg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	lg.Infow("dynroute53 starting", "version", version, "host", cfg.Server.Host, "port", cfg.Server.Port)
	return server.Start(ctx, cfg, lg, version)
}

func runUserAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("useradd", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	username := fs.String("username", "", "Login name")
	password := fs.String("password", "", "Password (at least 6 characters)")
	role := fs.String("role", auth.RoleEditor, "Role: admin or editor")
	_ = fs.Parse(args)

	if *username == "" || len(*password) < service.MinPasswordLen {
		return fmt.Errorf("username and a password of at least %d characters are required", service.MinPasswordLen)
	}
	if *role != auth.RoleAdmin && *role != auth.RoleEditor {
		return fmt.Errorf("role must be %s or %s", auth.RoleAdmin, auth.RoleEditor)
	}

	cfg, lg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	store, closeStore, err := server.OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.CreateUser(ctx, *username, *password, *role); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	lg.Infow("user created", "username", *username, "role", *role)
	return nil
}
