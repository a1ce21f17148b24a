// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/config"
	"github.com/onlinecinema/accounts/internal/xdg"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file against the schema and rules",
		Long: `Validate a config file. Without an argument the --config file, or the
XDG default, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = xdg.ExistingConfigFile()
			}
			if path == "" {
				return oops.Code("CONFIG_NOT_FOUND").With("default", xdg.ConfigFile()).Errorf("no config file to validate")
			}

			cfg, err := config.Load(config.LoadOptions{File: path, Flags: cmd.Flags(), Getenv: os.Getenv})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.Printf("%s: valid\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	})

	return cmd
}
