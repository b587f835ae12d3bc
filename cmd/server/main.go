/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Holiday Balance Engine server. Handles
  configuration, dependency injection, admin seeding, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env merged when present)
  2. Parse command-line flags (flags win over environment)
  3. Initialize SQLite store
  4. Seed the bootstrap admin (idempotent)
  5. Wire engine, account service, API handler and router
  6. Start server and token sweeper with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default from PORT, else 8080)
  -db      SQLite database path (default from DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the token sweeper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/holiday.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  PORT, DB_PATH, JWT_SECRET, TOKEN_TTL, ADMIN_USERNAME, ADMIN_PASSWORD,
  ADMIN_EMAIL, ADMIN_HOURS, DEFAULT_HOURS, LOG_LEVEL. See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/holiday-engine/account"
	"github.com/warp/holiday-engine/api"
	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/config"
	"github.com/warp/holiday-engine/holiday"
	"github.com/warp/holiday-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags win over environment
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Wire domain services
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	mailer := &account.LogMailer{Log: log}

	accountCfg := account.DefaultConfig()
	accountCfg.DefaultHours = cfg.DefaultHours

	accounts := account.NewService(store, store, issuer, mailer, accountCfg, log)
	engine := holiday.NewEngine(store, log)

	// Seed the bootstrap admin (no-op when already present)
	ctx := context.Background()
	if _, err := accounts.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail, cfg.AdminHours); err != nil {
		log.WithError(err).Fatal("failed to seed admin")
	}

	// HTTP surface
	handler := api.NewHandler(engine, accounts, log)
	router := api.NewRouter(handler, issuer)

	sweeper := api.NewTokenSweeper(store, log)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
