// Package migrate implements the database migration command.
package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumahq/luma/internal/infrastructure/config"
	"github.com/lumahq/luma/internal/infrastructure/database"
	"github.com/lumahq/luma/internal/infrastructure/migration"
	"github.com/lumahq/luma/internal/shared/logger"
)

var (
	env         string
	scriptsPath string
	steps       int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Run, roll back, and inspect the goose SQL migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVar(&scriptsPath, "scripts", "migrations", "Path to migration scripts")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migration.Runner) error {
				return r.Up(database.Get())
			})
		},
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migration.Runner) error {
				return r.Down(database.Get(), steps)
			})
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migration.Runner) error {
				return r.Status(database.Get())
			})
		},
	}
}

func withRunner(fn func(*migration.Runner) error) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	return fn(migration.NewRunner(scriptsPath, logger.NewLogger()))
}
