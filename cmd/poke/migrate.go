package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate on start; this one only prepares the database.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	slog.Info("Starting database migration", "database", cfg.Database.Path)

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n, err := store.CountDocuments(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Database %s at schema version %d (%d indexed documents)",
		cfg.Database.Path, storage.ExpectedSchemaVersion, n)))
	return nil
}
