// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the accounts CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Accounts - registration, login and token service",
		Long: `Accounts runs the user registration, email activation, login,
refresh token rotation and password reset flows of the online cinema.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/accounts/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newSeedCmd(deps))
	cmd.AddCommand(newCleanupCmd(deps))
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig reads the configuration for cmd from defaults, the config file,
// the environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:   configFile,
		Flags:  cmd.Flags(),
		Getenv: os.Getenv,
	})
}
