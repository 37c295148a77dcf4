package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dynroute53/db"
	"dynroute53/internal/auth"
	"dynroute53/internal/config"
	"dynroute53/internal/database"
	"dynroute53/internal/handler"
	"dynroute53/internal/memstore"
	"dynroute53/internal/provider"
	"dynroute53/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Store is everything the server persists: the core's repositories plus
// users.
type Store interface {
	service.Store
	auth.UserStore
	handler.UserAdmin
}

// Deps are the collaborators a router is built from.  Updater and Prober
// may be nil.
type Deps struct {
	Store     Store
	Lister    service.ZoneLister
	Updater   service.IPUpdater
	Prober    service.WebhookProber
	Directory auth.Directory
	Log       *zap.SugaredLogger
}

// NewRouter seeds the settings and returns the HTTP API.
func NewRouter(ctx context.Context, d Deps) (http.Handler, error) {
	audit := service.NewAuditor(d.Store, d.Log)
	accounts := service.NewAccounts(d.Store, audit, d.Log)
	targets := service.NewTargets(d.Store, d.Prober, audit, d.Log)
	zones := service.NewZoneCache(d.Store, d.Store, d.Lister, audit, d.Log)
	resolver := service.NewResolver(d.Store, d.Store, zones)
	domains := service.NewDomains(d.Store, d.Store, d.Store, resolver, d.Updater, audit, d.Log)
	settings := service.NewSettings(d.Store, service.DefaultSchema(), audit, d.Log)
	users := service.NewUsers(d.Store, audit, d.Log)
	if err := settings.Seed(ctx); err != nil {
		return nil, err
	}

	authn := auth.NewAuthenticator(d.Store, d.Directory, d.Log)
	accountH := handler.NewAccountHandler(accounts)
	targetH := handler.NewTargetHandler(targets)
	zoneH := handler.NewZoneHandler(zones)
	domainH := handler.NewDomainHandler(domains)
	settingH := handler.NewSettingHandler(settings)
	adminH := handler.NewAdminHandler(audit, users)
	setupH := handler.NewSetupHandler(d.Store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(api chi.Router) {
		api.Post("/setup", setupH.Submit)

		api.Group(func(api chi.Router) {
			api.Use(func(next http.Handler) http.Handler { return handler.RequireSetupComplete(d.Store, next) })
			api.Use(authn.Middleware)

			api.Get("/stats", handler.Stats(d.Store))

			api.Get("/accounts", accountH.List)
			api.Post("/accounts", accountH.Create)
			api.Delete("/accounts/{id}", accountH.Delete)

			api.Get("/notification-targets", targetH.List)
			api.Post("/notification-targets", targetH.Create)
			api.Put("/notification-targets/{id}", targetH.Update)
			api.Delete("/notification-targets/{id}", targetH.Delete)
			api.Post("/notification-targets/{id}/test", targetH.Test)

			api.Get("/zones", zoneH.List)
			api.Post("/zone-cache/refresh", zoneH.Refresh)

			api.Get("/domains", domainH.List)
			api.Post("/domains", domainH.Create)
			api.Get("/domains/{id}", domainH.Get)
			api.Put("/domains/{id}", domainH.Update)
			api.Delete("/domains/{id}", domainH.Delete)
			api.Post("/domains/{id}/update-ip", domainH.UpdateIP)
			api.Post("/domains/{id}/ip", domainH.RecordIP)

			api.Get("/settings", settingH.List)
			api.Get("/settings/{key}", settingH.Get)

			api.Group(func(admin chi.Router) {
				admin.Use(auth.RequireAdmin)
				admin.Put("/settings/{key}", settingH.Set)
				admin.Post("/settings/reset/{key}", settingH.Reset)
				admin.Get("/audit", adminH.AuditLog)

				admin.Get("/users", adminH.ListUsers)
				admin.Post("/users", adminH.CreateUser)
				admin.Put("/users/{id}", adminH.UpdateUser)
				admin.Delete("/users/{id}", adminH.DeleteUser)
			})
		})
	})

	return r, nil
}

// OpenStore opens the configured storage driver.  The returned close func
// is never nil.
func OpenStore(cfg config.StorageConfig) (Store, func() error, error) {
	switch cfg.Driver {
	case "memory":
		zap.S().Warn("using in-memory storage; all state is lost on exit")
		return memstore.New(), func() error { return nil }, nil
	default:
		pg, err := database.Open(cfg.DSN, db.MigrationsFS())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return pg, pg.Close, nil
	}
}

// Start serves the API until ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, version string) error {
	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var dir auth.Directory
	if cfg.LDAP.Enabled {
		dir = auth.NewLDAPClient(cfg.LDAP)
		log.Infow("LDAP authentication enabled", "url", cfg.LDAP.URL, "mapped_roles", len(cfg.LDAP.GroupMapping))
	}

	router, err := NewRouter(ctx, Deps{
		Store:     store,
		Lister:    provider.NewRoute53(cfg.AWS.Endpoint),
		Directory: dir,
		Log:       log,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", addr, "version", version, "storage", cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
