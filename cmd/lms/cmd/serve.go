package cmd

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbmohler/lmsmono/internal/api"
	"github.com/jbmohler/lmsmono/internal/seed"
	"github.com/jbmohler/lmsmono/pkg/config"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP server",
	Long: `Run the ledger HTTP server.

The server opens (and if needed creates) the SQLite database, ensures the
schema and reference data exist, and serves the JSON API until interrupted.

Example:
  lms serve
  LMS_PORT=9090 lms serve`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	exitOnError(db.InitializeSchema(conn), "failed to initialize schema")
	exitOnError(seed.ReferenceData(conn), "failed to seed reference data")

	slog.Info("database initialized", "db_path", cfg.Database.Path)

	requestTimeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	router := api.NewRouter(conn, requestTimeout)

	addr := ":" + cfg.Server.Port
	slog.Info("starting ledger server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
