// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which storage backend holds users.json / boards.json
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → store backend (jsonfile | sqlite) → store.Store
//	  → repository.Boards / repository.Users
//	  → bridge.Local  ← the only thing board state talks to
//	  → workspace.Registry (one board.State per signed-in user)
//	  → service.AccessGate / service.UserService
//	  → handlers → chi routes
//
// This is the "composition root" pattern: every dependency is built here,
// nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/backup"
	"github.com/sakif/kanban-boards/internal/board"
	"github.com/sakif/kanban-boards/internal/bridge"
	"github.com/sakif/kanban-boards/internal/config"
	"github.com/sakif/kanban-boards/internal/handler"
	"github.com/sakif/kanban-boards/internal/metrics"
	"github.com/sakif/kanban-boards/internal/middleware"
	"github.com/sakif/kanban-boards/internal/repository"
	"github.com/sakif/kanban-boards/internal/service"
	"github.com/sakif/kanban-boards/internal/store"
	"github.com/sakif/kanban-boards/internal/store/jsonfile"
	"github.com/sakif/kanban-boards/internal/store/sqlite"
	"github.com/sakif/kanban-boards/internal/workspace"
)

// shutdownTimeout bounds in-flight requests and the final backup.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store (a directory or a database file) and the backup
// scheduler. Close stops the scheduler first, so its final backup still has
// an open store, then closes the store.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   *store.Store
	bridge  *bridge.Local
	backups *backup.Scheduler
	metrics *prometheus.Registry
}

// New builds the whole dependency graph from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(backend, logger,
		store.WithRetention(cfg.BackupRetention),
		store.WithRecorder(collector),
	)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   st,
		metrics: reg,
	}

	if err := s.setupRoutes(collector); err != nil {
		st.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// openBackend picks the storage backend named by STORE_DRIVER.
func openBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	default:
		b, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening data directory: %w", err)
		}
		return b, nil
	}
}

// setupRoutes wires the services and mounts every route.
//
// ROUTE STRUCTURE:
//
//	POST   /api/session                 sign in
//	GET    /api/users                   user list for the sign-in screen
//	POST   /api/users                   add a user
//	GET    /api/users/{id}              one user
//	PUT    /api/users/{id}              rename / change password
//	DELETE /api/users/{id}              remove a user
//	-- session required --
//	DELETE /api/session                 switch user
//	GET    /api/users/me                who am I
//	GET    /api/boards                  bridge: load boards
//	PUT    /api/boards                  bridge: save boards
//	POST   /api/backup-flag             bridge: set needs-backup
//	/api/workspace/...                  server-side board model
//	GET    /metrics                     Prometheus
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it; Recoverer sits inside
// the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes(collector *metrics.Collector) error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	users := repository.NewUsers(s.store, s.logger)
	boards := repository.NewBoards(s.store, s.logger)

	s.bridge = bridge.New(boards, users, s.logger, collector)
	workspaces := workspace.New(s.bridge, s.logger,
		board.WithLogger(s.logger),
		board.WithRecorder(collector),
	)
	s.bridge.OnSwitchUser(workspaces.Drop)

	s.backups = backup.New(s.bridge, boards, cfg.BackupInterval, s.logger)

	passwords := auth.NewPasswordChecker(cfg.MasterPassword)
	if passwords.MasterEnabled() {
		s.logger.Warn("MASTER_PASSWORD is set: it opens every user's boards")
	}

	gate := service.NewAccessGate(
		users,
		tokens,
		passwords,
		service.NewLoginLimiter(cfg.LoginRatePerMin),
		collector,
		s.logger,
	)
	userService := service.NewUserService(users, gate, s.logger)

	sessionHandler := handler.NewSessionHandler(gate, s.bridge, s.logger)
	userHandler := handler.NewUserHandler(userService, s.bridge, s.logger)
	boardsHandler := handler.NewBoardsHandler(s.bridge, workspaces, s.logger)
	workspaceHandler := handler.NewWorkspaceHandler(workspaces, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger, "/metrics"))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", metrics.Handler(s.metrics))

	s.router.Route("/api", func(r chi.Router) {
		// === Public: the sign-in screen ===
		r.Post("/session", sessionHandler.HandleLogin)
		r.Get("/users", userHandler.HandleList)
		r.Post("/users", userHandler.HandleCreate)
		r.Get("/users/{id}", userHandler.HandleGet)
		r.Put("/users/{id}", userHandler.HandleUpdate)
		r.Delete("/users/{id}", userHandler.HandleDelete)

		// === Signed in ===
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.bridge))

			r.Delete("/session", sessionHandler.HandleLogout)
			r.Get("/users/me", userHandler.HandleMe)

			r.Get("/boards", boardsHandler.HandleLoad)
			r.Put("/boards", boardsHandler.HandleSave)
			r.Post("/backup-flag", boardsHandler.HandleBackupFlag)

			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", workspaceHandler.HandleView)
				r.Post("/active", workspaceHandler.HandleSelectBoard)
				r.Post("/undo", workspaceHandler.HandleUndo)
				r.Post("/save", workspaceHandler.HandleSave)
				r.Get("/export", workspaceHandler.HandleExport)
				r.Post("/import", workspaceHandler.HandleImport)

				r.Post("/boards", workspaceHandler.HandleCreateBoard)
				r.Put("/boards/{boardID}", workspaceHandler.HandleRenameBoard)
				r.Delete("/boards/{boardID}", workspaceHandler.HandleDeleteBoard)

				r.Post("/columns", workspaceHandler.HandleCreateColumn)
				r.Put("/columns/{columnID}", workspaceHandler.HandleEditColumn)
				r.Delete("/columns/{columnID}", workspaceHandler.HandleDeleteColumn)
				r.Post("/columns/{columnID}/move", workspaceHandler.HandleMoveColumn)

				r.Post("/cards", workspaceHandler.HandleCreateCard)
				r.Put("/cards/{cardID}", workspaceHandler.HandleEditCard)
				r.Delete("/cards/{cardID}", workspaceHandler.HandleDeleteCard)
				r.Post("/cards/{cardID}/move", workspaceHandler.HandleMoveCard)
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops the backup scheduler, taking the pending backup if there is
// one, and closes the store.
func (s *Server) Close(ctx context.Context) error {
	s.backups.Stop(ctx)
	return s.store.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Take the deferred backup if a save flagged one
//  4. Close the store (for sqlite: flushes WAL, releases the file lock)
func (s *Server) Start() error {
	if err := s.backups.Start(); err != nil {
		s.store.Close()
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.StoreDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			runErr = fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("closing store: %w", err)
	}
	if runErr == nil {
		s.logger.Info("server stopped gracefully")
	}
	return runErr
}
