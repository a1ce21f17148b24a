// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/auth"
	authpg "github.com/onlinecinema/accounts/internal/auth/postgres"
	"github.com/onlinecinema/accounts/internal/logging"
	"github.com/onlinecinema/accounts/internal/store"
)

// Default timeout for a one-shot cleanup.
const defaultCleanupTimeout = 5 * time.Minute

// newCleanupCmd creates the cleanup subcommand.
func newCleanupCmd(deps *Deps) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh and password reset tokens",
		Long: `Deletes every opaque token whose expiry has passed, then exits.
Intended to run from cron when cleanup.interval is not set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}

			logger := logging.SetupLevel(serviceName, version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pool, err := deps.withDefaults().PoolFactory(ctx, store.PoolConfig{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			return runCleanup(ctx, cmd, pool, cfg.Store.Timeout, logger)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultCleanupTimeout, "overall timeout for the purge")
	return cmd
}

func runCleanup(ctx context.Context, cmd *cobra.Command, pool store.Pool, storeTimeout time.Duration, logger *slog.Logger) error {
	tokens, err := auth.NewOpaqueTokenStore(authpg.NewTokenRepository(pool), auth.SystemClock{}, storeTimeout)
	if err != nil {
		return err
	}

	purged, err := auth.NewCleanupJob(tokens, logger, nil).Run(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Purged %d expired token(s)\n", purged)
	return nil
}
