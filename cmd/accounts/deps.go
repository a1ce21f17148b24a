// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/httpapi"
	"github.com/onlinecinema/accounts/internal/mail"
	"github.com/onlinecinema/accounts/internal/observability"
	"github.com/onlinecinema/accounts/internal/store"
)

// DBPool wraps the methods used from *pgxpool.Pool.
type DBPool interface {
	store.Pool
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (*store.MigrationStatus, error)
	Close() error
}

// Server wraps the methods used from httpapi.Server and observability.Server.
type Server interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the database pool.
	// Default: store.Open
	PoolFactory func(ctx context.Context, cfg store.PoolConfig) (DBPool, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// SMTPNotifierFactory creates the mail notifier used when mail.host is set.
	// Default: mail.NewSMTPNotifier
	SMTPNotifierFactory func(cfg mail.SMTPConfig, logger *slog.Logger) (auth.Notifier, error)

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) *observability.Server

	// APIServerFactory creates the public API server.
	// Default: httpapi.NewServer
	APIServerFactory func(addr string, handler http.Handler, logger *slog.Logger) Server
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, cfg store.PoolConfig) (DBPool, error) {
			pool, err := store.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.SMTPNotifierFactory == nil {
		out.SMTPNotifierFactory = func(cfg mail.SMTPConfig, logger *slog.Logger) (auth.Notifier, error) {
			n, err := mail.NewSMTPNotifier(cfg, logger)
			if err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = observability.NewServer
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) Server {
			return httpapi.NewServer(addr, handler, logger)
		}
	}
	return &out
}
