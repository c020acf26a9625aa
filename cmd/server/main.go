/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the finance engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Optionally seed the default chart of accounts
  4. Wire domain services and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: finance.db)
           Use ":memory:" for in-memory database
  -seed    Seed the default chart of accounts if the chart is empty

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database, seeding the default chart on first boot
  ./server -db="./data/finance.db" -seed

  # Run with in-memory database
  ./server -db=":memory:" -seed

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keystone/finance-engine/api"
	"github.com/keystone/finance-engine/autopost"
	"github.com/keystone/finance-engine/expense"
	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/observability"
	"github.com/keystone/finance-engine/statements"
	"github.com/keystone/finance-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "finance.db", "SQLite database path")
	seed := flag.Bool("seed", false, "seed the default chart of accounts if empty")
	flag.Parse()

	log := observability.NewConsoleLogger("server")

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Domain services, all sharing the one store
	registry := ledger.NewRegistry(store)
	calendar := ledger.NewCalendar(store)
	journal := ledger.NewJournal(store)
	compiler := statements.NewCompiler(store)
	poster := autopost.New(journal, registry, store)
	expenses := expense.NewService(store, journal, registry)

	if *seed {
		created, err := registry.SeedDefaultChart(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed default chart")
		}
		if created > 0 {
			log.Info().Int("accounts", created).Msg("default chart installed")
		}
	}

	handler := api.NewHandler(registry, calendar, journal, compiler, poster, expenses)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", *port).Str("db", *dbPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
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
