package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskwire-api/internal/config"
	"github.com/phrazzld/taskwire-api/internal/notify"
	"github.com/phrazzld/taskwire-api/internal/platform/postgres"
	"github.com/phrazzld/taskwire-api/internal/policy"
	"github.com/phrazzld/taskwire-api/internal/service"
	"github.com/phrazzld/taskwire-api/internal/service/auth"
	"github.com/phrazzld/taskwire-api/internal/store"
	"github.com/phrazzld/taskwire-api/internal/ws"
	"golang.org/x/crypto/bcrypt"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Auth
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	// Access control
	accessPolicy *policy.AccessPolicy

	// Live updates
	hub      *ws.Hub
	notifier notify.Notifier

	// Services
	userService *service.UserService
	taskService *service.TaskService
}

// newApplication creates a new application instance with all dependencies
// initialized. The websocket hub is started here and stopped in cleanup.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	app.userStore = postgres.NewPostgresUserStore(db, bcryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.accessPolicy = policy.New(cfg.Policy)

	app.hub = ws.NewHub(ws.HubConfig{
		EventBufferSize:  cfg.Notifier.EventBufferSize,
		ClientBufferSize: cfg.Notifier.ClientBufferSize,
	}, logger)
	app.hub.Start()

	app.notifier = notify.NewTaskNotifier(app.hub, logger)

	app.userService, err = service.NewUserService(app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.userStore,
		app.accessPolicy,
		app.notifier,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.hub != nil {
		app.hub.Stop()
		app.logger.Info("Websocket hub stopped")
	}
}
