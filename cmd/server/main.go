/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine HTTP server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and FHR_* configuration
  2. Build the logger, ledger store and policy rules
  3. Wire the analyzer service and API handler
  4. Start the server with graceful shutdown

CONFIGURATION:
  All settings come from fhr.yaml / FHR_* environment variables, e.g.
    FHR_SERVER_PORT=8099
    FHR_STATE_FILE=./analysis_state.json
    FHR_RULES_LATEST_CHECKIN=10:30

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Configuration loading
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fhr/attendance-engine/analyzer"
	"github.com/fhr/attendance-engine/api"
	"github.com/fhr/attendance-engine/config"
	"github.com/fhr/attendance-engine/holiday"
	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/logging"
	"github.com/fhr/attendance-engine/store/statefile"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("attendance-engine", "production")
		bootLog.Fatal().Err(err).Msg("configuration error")
	}
	log := logging.New("attendance-engine", cfg.Environment)

	rules, err := cfg.Rules.PolicyRules()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rule overrides")
	}

	store := statefile.New(cfg.State.File, log)
	l := ledger.New(store, log)

	gov := holiday.NewGovClient(holiday.GovOptions{
		MaxRetries:  cfg.Holiday.APIMaxRetries,
		BackoffBase: cfg.Holiday.APIBackoff,
		MaxBackoff:  cfg.Holiday.APIMaxBackoff,
	}, log)
	holidays := holiday.NewService(gov, log)

	engine := analyzer.NewEngine(l, rules, log)
	service := analyzer.NewService(engine, l, holidays, log)

	workDir := filepath.Join(os.TempDir(), "fhr-exports")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create work dir")
	}

	handler := api.NewHandler(service, l, workDir, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("state_file", store.Path()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
