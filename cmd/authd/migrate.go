package main

import (
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/taskboard/authd/internal/infrastructure/db/postgres"
	"github.com/taskboard/authd/internal/pkg/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, dsn)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (defaults to POSTGRES_DSN)")
	return cmd
}

func runMigrate(cmd *cobra.Command, dsn string) error {
	ctx := cmd.Context()

	if dsn == "" {
		var pg config.PostgresConfig
		if err := envconfig.Process(ctx, &pg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		dsn = pg.DSN
	}
	if dsn == "" {
		return errors.New("POSTGRES_DSN or --dsn is required")
	}

	cmd.Println("Connecting to database...")
	pool, err := postgres.Connect(ctx, postgres.Config{DSN: dsn})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
