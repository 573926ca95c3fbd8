package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jbmohler/lmsmono/internal/seed"
	"github.com/jbmohler/lmsmono/pkg/config"
	"github.com/jbmohler/lmsmono/pkg/db"
)

var (
	seedDemo  bool
	seedReset bool
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data into the database",
	Long: `Load reference data into the database.

Inserts the five standard account types and the reconciliation tags. The
command is idempotent: rerunning it against a seeded database changes
nothing. With --demo it also loads a small demo chart of accounts, and with
--reset it wipes every table first.

Example:
  lms seed
  lms seed --demo
  lms seed --reset --demo`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also load a demo chart of accounts")
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "delete all existing data first")
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	conn, err := db.Open(cfg.Database.Path)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	exitOnError(db.InitializeSchema(conn), "failed to initialize schema")

	if seedReset {
		slog.Info("resetting database", "db_path", cfg.Database.Path)
		exitOnError(seed.Reset(conn), "failed to reset database")
	}

	exitOnError(seed.ReferenceData(conn), "failed to seed reference data")
	slog.Info("reference data loaded")

	if seedDemo {
		exitOnError(seed.Demo(conn), "failed to seed demo data")
		slog.Info("demo chart of accounts loaded")
	}

	fmt.Println("Seed complete")
}
