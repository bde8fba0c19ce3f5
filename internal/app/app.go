package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"

	httpapi "github.com/arkforge/scaffold/internal/http"
	"github.com/arkforge/scaffold/internal/service"
	"github.com/arkforge/scaffold/internal/store"
	"github.com/arkforge/scaffold/internal/store/drivers/sqlite"
	"github.com/arkforge/scaffold/pkg/authx"
	"github.com/arkforge/scaffold/pkg/cryptox"
	"github.com/arkforge/scaffold/pkg/httpx"
	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/arkforge/scaffold/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application wires the scaffold service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	tokens *authx.Manager
	policy *jwtx.Policy

	authService       *service.AuthService
	userService       *service.UserService
	roleService       *service.RoleService
	permissionService *service.PermissionService

	server *http.Server
	router *httpapi.Router

	stopHousekeeping chan struct{}
}

// New builds the application. A blank signing key is fatal: the process
// must refuse to start rather than issue unverifiable tokens.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "scaffold",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		stopHousekeeping: make(chan struct{}),
	}

	if cfg.Auth.Authority != "" || cfg.Auth.MetadataAddress != "" {
		app.logger.Warn("authority/metadata address configured but remote discovery is not supported; using the local signing key")
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	db, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	app.db = db

	tokens, err := authx.NewManager(authx.Options{
		IssuerSigningKey: cfg.Auth.IssuerSigningKey,
		Issuer:           cfg.Auth.Issuer,
		Expiry:           cfg.Auth.Expiry,
	}, clock.WallClock)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}
	app.tokens = tokens

	policy, err := jwtx.NewPolicy(jwtx.PolicyConfig{
		IssuerSigningKey:         cfg.Auth.IssuerSigningKey,
		ValidIssuer:              cfg.Auth.ValidIssuer,
		ValidIssuers:             cfg.Auth.ValidIssuers,
		ValidAudience:            cfg.Auth.ValidAudience,
		ValidAudiences:           cfg.Auth.ValidAudiences,
		ValidateIssuer:           cfg.Auth.ValidateIssuer,
		ValidateAudience:         cfg.Auth.ValidateAudience,
		RequireAudience:          cfg.Auth.RequireAudience,
		ValidateLifetime:         cfg.Auth.ValidateLifetime,
		ValidateTokenReplay:      cfg.Auth.ValidateTokenReplay,
		ValidateActor:            cfg.Auth.ValidateActor,
		ValidateIssuerSigningKey: cfg.Auth.ValidateIssuerSigningKey,
		RequireExpirationTime:    cfg.Auth.RequireExpirationTime,
		RequireSignedTokens:      cfg.Auth.RequireSignedTokens,
	}, clock.WallClock)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build validation policy: %w", err)
	}
	app.policy = policy

	app.initServices()
	app.initHTTP()

	return app, nil
}

func (app *Application) initServices() {
	app.permissionService = &service.PermissionService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}
	app.roleService = &service.RoleService{Store: app.db, Permissions: app.permissionService}
	app.authService = &service.AuthService{
		Store:      app.db,
		Tokens:     app.tokens,
		Clock:      clock.WallClock,
		Audience:   app.cfg.Auth.Audience,
		RefreshTTL: app.cfg.Auth.RefreshTTL,
	}
}

func (app *Application) initHTTP() {
	authn := httpx.AuthnConfig{
		Policy:         app.policy,
		CookieName:     app.cfg.Auth.CookieName,
		ClientIDHeader: app.cfg.Auth.ClientIDHeader,
		SaveToken:      app.cfg.Auth.SaveToken,
	}
	authz := &httpx.Authorizer{
		Disabled:            app.cfg.Auth.Disabled,
		Policies:            app.cfg.Auth.Policies,
		Challenge:           app.cfg.Auth.Challenge,
		IncludeErrorDetails: app.cfg.Auth.IncludeErrorDetails,
	}
	cookie := httpapi.CookieConfig{
		Name:   app.cfg.Auth.CookieName,
		Secure: app.cfg.Auth.CookieSecure,
		MaxAge: app.cfg.Auth.Expiry,
	}

	app.router = httpapi.NewRouter(authn, authz, cookie, BuildVersion, app.db, app.logger)
	app.router.AuthService = app.authService
	app.router.UserService = app.userService
	app.router.RoleService = app.roleService
	app.router.PermissionService = app.permissionService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the server and blocks until shutdown is requested.
func (app *Application) Run() error {
	go app.housekeeping()

	app.logger.Info("scaffold service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"auth_disabled", app.cfg.Auth.Disabled,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (app *Application) Shutdown() error {
	close(app.stopHousekeeping)

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return err
	}
	return app.db.Close()
}

// housekeeping periodically prunes expired refresh tokens.
func (app *Application) housekeeping() {
	interval := app.cfg.HousekeepingInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := app.db.RefreshTokens().DeleteExpiredRefreshTokens(ctx); err != nil {
				app.logger.Error("housekeeping failed", "error", err)
			}
			cancel()
		case <-app.stopHousekeeping:
			return
		}
	}
}
