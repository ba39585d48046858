package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/dashauth/internal/auth/http"
	"github.com/aussiebroadwan/dashauth/internal/auth/service"
	"github.com/aussiebroadwan/dashauth/internal/auth/store"
	"github.com/aussiebroadwan/dashauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/dashauth/pkg/cryptox"
	"github.com/aussiebroadwan/dashauth/pkg/jwtx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	devSecretSize = 32
)

// Application encapsulates the token service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	issuer *jwtx.Issuer

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dashauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSecrets(); err != nil {
		return nil, err
	}

	if err := cryptox.LoadPepper(app.cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	issuer, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		AccessSecret:  []byte(app.cfg.AccessTokenSecret),
		RefreshSecret: []byte(app.cfg.RefreshTokenSecret),
		AccessTTL:     app.cfg.AccessTokenExpiry,
		RefreshTTL:    app.cfg.RefreshTokenExpiry,
		Leeway:        app.cfg.TokenLeeway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.issuer = issuer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.seedAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("token service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"access_ttl", app.issuer.AccessTTL(),
		"refresh_ttl", app.issuer.RefreshTTL(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application. It must only be called
// after Run has started the housekeeping worker.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down token service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("token service stopped")
	return nil
}

// initSecrets fills missing signing secrets with random ones in dev, so a
// fresh checkout starts without setup. Tokens then do not survive restarts.
func (app *Application) initSecrets() error {
	if app.cfg.Env == "dev" {
		for name, secret := range map[string]*string{
			"ACCESS_TOKEN_SECRET":  &app.cfg.AccessTokenSecret,
			"REFRESH_TOKEN_SECRET": &app.cfg.RefreshTokenSecret,
		} {
			if *secret != "" {
				continue
			}
			generated, err := cryptox.GenerateSecret(devSecretSize)
			if err != nil {
				return err
			}
			*secret = generated
			app.logger.Warn("signing secret not set, generated an ephemeral one", "var", name)
		}
	}

	if err := app.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:  app.db,
		Issuer: app.issuer,
	}
	app.userService = &service.UserService{Store: app.db}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.MFAIssuer,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// seedAdmin creates the first admin from DASHAUTH_ADMIN_EMAIL when the
// database has no users yet.
func (app *Application) seedAdmin(ctx context.Context) error {
	if app.cfg.AdminEmail == "" {
		return nil
	}

	password, err := app.userService.SeedAdmin(ctx, app.cfg.AdminEmail, app.cfg.AdminPassword)
	switch {
	case errors.Is(err, service.ErrAlreadySeeded):
		app.logger.Debug("users exist, skipping admin seed")
		return nil
	case err != nil:
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	if app.cfg.AdminPassword == "" {
		app.logger.Warn("seeded admin with a generated password, change it after first login",
			"email", app.cfg.AdminEmail,
			"password", password,
		)
	} else {
		app.logger.Info("seeded admin", "email", app.cfg.AdminEmail)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.MFAService = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
