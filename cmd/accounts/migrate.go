// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/store"
)

// newMigrateCmd creates the migrate subcommand. Without a subcommand it
// applies every pending migration.
func newMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	})

	var all bool
	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default: one step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return oops.Code("INVALID_STEPS").With("steps", args[0]).Errorf("steps must be a positive integer")
				}
				steps = n
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("All migrations rolled back")
					return nil
				}
				if err := m.Steps(-steps); err != nil {
					return err
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().BoolVar(&all, "all", false, "roll back every migration (drops all tables)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Errorf("version must be an integer")
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced migration version to %d\n", v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				printMigrationStatus(cmd, status)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, deps *Deps, fn func(Migrator) error) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	m, err := deps.withDefaults().MigratorFactory(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}

func printMigrationStatus(cmd *cobra.Command, status *store.MigrationStatus) {
	dirty := ""
	if status.Dirty {
		dirty = " (dirty)"
	}
	cmd.Printf("Current version: %d%s\n", status.Version, dirty)
	for _, v := range status.Applied {
		cmd.Printf("  [applied] %s\n", migrationLabel(v))
	}
	for _, v := range status.Pending {
		cmd.Printf("  [pending] %s\n", migrationLabel(v))
	}
}

func migrationLabel(v uint) string {
	name, err := store.MigrationName(v)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", v)
	}
	return name
}
