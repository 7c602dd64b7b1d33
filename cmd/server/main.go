// Package main is the entry point for the kanban boards server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to:
// 1. Read configuration (environment, optional .env file)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in internal/. cmd/ is the Go convention for
// executable entry points; each binary gets its own directory.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/kanban-boards/internal/config"
	"github.com/sakif/kanban-boards/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Load reads .env if it exists, then the environment. Every key has a
	// default except the ones validate() insists on.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_FORMAT=json for log shippers, text for a terminal. The response
	// helpers log through the slog default, so it is replaced too.
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.EphemeralSecret {
		logger.Warn("SESSION_SECRET not set, using a random one: sessions end when the server restarts")
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
