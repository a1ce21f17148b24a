// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/auth"
	authpg "github.com/onlinecinema/accounts/internal/auth/postgres"
	"github.com/onlinecinema/accounts/internal/store"
)

// Default timeout for the seed command.
const defaultSeedTimeout = 30 * time.Second

// newSeedCmd creates the seed subcommand.
func newSeedCmd(deps *Deps) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the user groups",
		Long: `Creates the USER, MODERATOR and ADMIN groups. Registration fails until
the default group exists. This command is idempotent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}

			// cmd.Context() carries SIGINT/SIGTERM cancellation.
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pool, err := deps.withDefaults().PoolFactory(ctx, store.PoolConfig{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			return seedGroups(ctx, cmd, authpg.NewGroupRepository(pool))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	return cmd
}

func seedGroups(ctx context.Context, cmd *cobra.Command, groups auth.GroupRepository) error {
	for _, name := range auth.GroupNames {
		group, err := groups.Ensure(ctx, name)
		if err != nil {
			return oops.Code("SEED_FAILED").With("group", name).Wrap(err)
		}
		cmd.Printf("Group %s ready (id %d)\n", group.Name, group.ID)
	}
	cmd.Println("Seeding complete!")
	return nil
}
