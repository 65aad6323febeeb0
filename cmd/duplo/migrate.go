package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the journal tables",
	Long: `Create the operation journal table in the configured database and
validate its schema. Running it again is harmless.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	if !cfg.Journal.Enabled() {
		return errors.New("journal.type is none; nothing to migrate")
	}

	db, err := database.Connect(ctx, cfg.Journal.Database())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("database migration complete", "type", cfg.Journal.Type, "table", cfg.Journal.Table)
	return nil
}
