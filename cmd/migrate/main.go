package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmr/account-service/internal/migrate"
	"github.com/dmr/account-service/internal/repository/postgres"
	"github.com/dmr/account-service/migrations"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migration tool for the account service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newTestCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newMigrateSingleCmd())
	return root
}

func newRunner() (*migrate.Runner, error) {
	// Only the database URL matters here; the full server config (JWT
	// secret and friends) is not required to run migrations.
	_ = godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	db, err := postgres.NewConnection(databaseURL)
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return migrate.NewRunner(db, migrations.FS, log), nil
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}

			version, err := runner.Ping(context.Background())
			if err != nil {
				return err
			}

			cmd.Println("Database connection OK")
			cmd.Println(version)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending migrations in filename-sorted order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}

			if err := runner.ApplyAll(context.Background()); err != nil {
				return err
			}

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newMigrateSingleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:single <file>",
		Short: "Apply a single migration file (no-op if already recorded)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner()
			if err != nil {
				return err
			}

			if err := runner.Apply(context.Background(), args[0]); err != nil {
				return err
			}

			cmd.Printf("Migration %s completed\n", args[0])
			return nil
		},
	}
}
