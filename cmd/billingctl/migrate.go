package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/erp/billing/internal/infrastructure/migration"
	"github.com/erp/billing/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back schema migrations. The migrations compiled into the binary
are used unless --dir points at a directory of *.up.sql / *.down.sql files.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Example: `  # Roll back the latest migration
  billingctl migrate down --steps 1

  # Roll back everything
  billingctl migrate down --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		all, _ := cmd.Flags().GetBool("all")
		if all == (steps > 0) {
			return fmt.Errorf("give either --steps N or --all")
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Down(steps) })
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			status, err := m.Status()
			if err != nil {
				return err
			}
			if !status.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", status.Version, status.Dirty)
			return nil
		})
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Mark a version as applied and clean after a manual repair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Force(version) })
	},
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := migration.List(migrationSource())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty up/down migration pair in --dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := migrationsDir
		if dir == "" {
			dir = "migrations"
		}
		pair, err := migration.Create(dir, args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pair.UpPath)
		fmt.Fprintln(cmd.OutOrStdout(), pair.DownPath)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (default: embedded)")
	migrateDownCmd.Flags().Int("steps", 0, "number of migrations to roll back")
	migrateDownCmd.Flags().Bool("all", false, "roll back every migration")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd, migrateForceCmd, migrateListCmd, migrateCreateCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrationSource() fs.FS {
	if migrationsDir != "" {
		return migration.Dir(migrationsDir)
	}
	return migrations.FS
}

func withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migrationSource(), log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}
