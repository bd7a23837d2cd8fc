package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/pkg/database"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "BEACON_DB_DSN"

var dsn string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the lead_predictions schema",
	Long: `Apply or revert the embedded PostgreSQL migrations.

The connection string comes from --dsn, then BEACON_DB_DSN. Without either,
it is assembled from the same BEACON_DB_* variables the server reads.

Examples:
  migrate up
  migrate steps -1
  migrate --dsn postgres://user:pass@db:5432/beacon?sslmode=disable version`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all up migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(m *migrate.Migrate) error {
			if err := ignoreNoChange(m.Up()); err != nil {
				return fmt.Errorf("run up migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Run all down migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(m *migrate.Migrate) error {
			if err := ignoreNoChange(m.Down()); err != nil {
				return fmt.Errorf("run down migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted successfully")
			return nil
		})
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations (positive=up, negative=down)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("steps must be a non-zero integer: %q", args[0])
		}
		return run(func(m *migrate.Migrate) error {
			if err := ignoreNoChange(m.Steps(n)); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", n)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("get version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Force set the migration version (use with caution)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return run(func(m *migrate.Migrate) error {
			if err := m.Force(v); err != nil {
				return fmt.Errorf("force version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forced to version %d\n", v)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database connection string")
	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveDSN() (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg := database.Config{Name: "beacon", User: "beacon", Password: "beacon"}
	if err := cfg.Finalize(config.DatabaseEnv); err != nil {
		return "", fmt.Errorf("database config: %w", err)
	}
	return cfg.URL(), nil
}

func run(fn func(m *migrate.Migrate) error) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	target, err := resolveDSN()
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, target)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
