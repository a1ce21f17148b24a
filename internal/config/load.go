// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package config

import (
	"os"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/onlinecinema/accounts/internal/xdg"
)

// Environment variables that override file and default values.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvSecretKey    = "ACCOUNTS_SECRET_KEY"
	EnvMailPassword = "ACCOUNTS_MAIL_PASSWORD"
)

var envKeys = map[string]string{
	EnvDatabaseURL:  "database.url",
	EnvSecretKey:    "auth.secret_key",
	EnvMailPassword: "mail.password",
}

// flagKeys maps command-line flags registered by BindFlags to config keys.
var flagKeys = map[string]string{
	"http-addr":        "http.addr",
	"metrics-addr":     "metrics.addr",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"database-url":     "database.url",
	"cleanup-interval": "cleanup.interval",
}

// BindFlags registers the overridable settings on fs. Defaults shown in help
// come from Default.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health listen address (empty disables)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Duration("cleanup-interval", d.Cleanup.Interval, "expired token purge interval (0 disables)")
}

// LoadOptions controls Load.
type LoadOptions struct {
	// File is the YAML file to read. When empty the XDG config file is used
	// if it exists.
	File string
	// Flags holds flags registered by BindFlags. Only flags set on the
	// command line override other sources.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load builds a Config from defaults, the config file, the environment and
// flags, in increasing order of precedence. The result is not validated.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	path := opts.File
	if path == "" {
		path = xdg.ExistingConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("file", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for env, key := range envKeys {
		if v := getenv(env); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return cfg, nil
}
