/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment)
  2. Initialize SQLite store
  3. Load leave quotas (defaults, optionally overridden from file)
  4. Build calendar, service, handler, router
  5. Start the sweep scheduler
  6. Start server with graceful shutdown

CONFIGURATION:
  PORT                    HTTP server port (default: 8080)
  DB_PATH                 SQLite database path (default: leave.db)
                          Use ":memory:" for in-memory database
  AUTO_REJECT_AFTER_DAYS  Pending-age threshold for auto-reject (default: 7)
  AUTO_REJECT_CRON        Auto-reject schedule (default: "0 1 * * *")
  ROLLOVER_CRON           Rollover schedule (default: "30 0 1 1 *")
  SCHEDULER_ENABLED       Run scheduled sweeps (default: true)
  WEEKEND_DAYS            Weekly off days (default: "Saturday,Sunday")
  QUOTA_CONFIG            Path to a quota override JSON file

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler, waiting for a running sweep to finish
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/leave.db ./server

  # Run with in-memory database and no background sweeps
  DB_PATH=":memory:" SCHEDULER_ENABLED=false ./server

SEE ALSO:
  - config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Leave quotas: defaults, optionally overridden from file
	quotas := factory.DefaultQuotas()
	if cfg.QuotaConfigPath != "" {
		quotas, err = factory.LoadQuotasFile(cfg.QuotaConfigPath)
		if err != nil {
			log.Fatalf("Failed to load quota config %s: %v", cfg.QuotaConfigPath, err)
		}
		log.Printf("Loaded quota overrides from %s", cfg.QuotaConfigPath)
	}

	// Domain wiring
	calendar := leave.NewCalendar(store, cfg.WeekendDays)
	service := leave.NewService(store, calendar, quotas)

	// HTTP wiring
	handler := api.NewHandler(service, store, calendar, cfg.AutoRejectAfter)
	router := api.NewRouter(handler)

	// Background sweeps
	scheduler := api.NewScheduler(service, cfg.AutoRejectAfter)
	if cfg.SchedulerEnabled {
		if err := scheduler.Register(cfg.AutoRejectCron, "auto-reject", scheduler.RunAutoReject); err != nil {
			log.Fatalf("Invalid AUTO_REJECT_CRON: %v", err)
		}
		if err := scheduler.Register(cfg.RolloverCron, "rollover", scheduler.RunRollover); err != nil {
			log.Fatalf("Invalid ROLLOVER_CRON: %v", err)
		}
		scheduler.Start()
	} else {
		log.Println("[Scheduler] Disabled, not starting")
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if cfg.SchedulerEnabled {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
