package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hackbox-events/server/internal/storage/postgres"
)

var (
	migrateDatabaseURL string
	migrationsPath     string
	migrateDownSteps   int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
	Long: `Apply or roll back the application schema and install the River job tables.

The database URL is read from --database-url, falling back to DATABASE_URL.

Examples:
  server migrate up
  server migrate down --steps 1
  server migrate river`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, path, err := migrationTarget()
		if err != nil {
			return err
		}
		if err := postgres.MigrateUp(dbURL, path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps <= 0 {
			return fmt.Errorf("--steps must be greater than zero")
		}
		dbURL, path, err := migrationTarget()
		if err != nil {
			return err
		}
		if err := postgres.MigrateDown(dbURL, path, migrateDownSteps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
		return nil
	},
}

var migrateRiverCmd = &cobra.Command{
	Use:   "river",
	Short: "Install or upgrade the River job queue tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, _, err := migrationTarget()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := postgres.Open(ctx, dbURL, 2)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.MigrateRiver(ctx, pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "river migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "postgres connection URL (default: $DATABASE_URL)")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: $MIGRATIONS_PATH or "+postgres.DefaultMigrationsPath+")")
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateRiverCmd)
}

// migrationTarget resolves the database and migrations directory from flags,
// then the environment (including a local .env file).
func migrationTarget() (dbURL, path string, err error) {
	_ = godotenv.Load()

	dbURL = firstNonEmpty(migrateDatabaseURL, os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return "", "", fmt.Errorf("database URL is required (--database-url or DATABASE_URL)")
	}
	path = firstNonEmpty(migrationsPath, os.Getenv("MIGRATIONS_PATH"), postgres.DefaultMigrationsPath)
	return dbURL, path, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
