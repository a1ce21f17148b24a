// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/onlinecinema/accounts/internal/auth"
	authpg "github.com/onlinecinema/accounts/internal/auth/postgres"
	"github.com/onlinecinema/accounts/internal/config"
	"github.com/onlinecinema/accounts/internal/httpapi"
	"github.com/onlinecinema/accounts/internal/logging"
	"github.com/onlinecinema/accounts/internal/mail"
	"github.com/onlinecinema/accounts/internal/observability"
	"github.com/onlinecinema/accounts/internal/profile"
	profilepg "github.com/onlinecinema/accounts/internal/profile/postgres"
	"github.com/onlinecinema/accounts/internal/scheduler"
	"github.com/onlinecinema/accounts/internal/store"
)

const serviceName = "accounts"

// newServeCmd creates the serve subcommand.
func newServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the accounts API server",
		Long: `Start the HTTP API together with the metrics/health server and,
when cleanup.interval is set, the in-process expired token purge.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, deps)
		},
	}
}

// app holds the wired services.
type app struct {
	auth     *auth.Service
	profiles *profile.Service
	cleanup  *auth.CleanupJob
}

// newApp wires repositories, token machinery and services over pool.
func newApp(cfg *config.Config, pool store.Pool, metrics *observability.Metrics, logger *slog.Logger, deps *Deps) (*app, error) {
	clock := auth.SystemClock{}

	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.SecretKey), cfg.Auth.Algorithm, clock, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewOpaqueTokenStore(authpg.NewTokenRepository(pool), clock, cfg.Store.Timeout)
	if err != nil {
		return nil, err
	}

	var notifier auth.Notifier
	if cfg.Mail.Host != "" {
		notifier, err = deps.SMTPNotifierFactory(cfg.SMTPConfig(), logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("mail.host not set, notification links are logged instead of sent")
		notifier = mail.NewLogNotifier(cfg.Mail.FrontendURL, logger)
	}

	svc, err := auth.NewService(auth.ServiceDeps{
		Users:    authpg.NewUserRepository(pool),
		Groups:   authpg.NewGroupRepository(pool),
		Tokens:   tokens,
		Codec:    codec,
		Hasher:   auth.NewArgon2idHasher(),
		Notifier: notifier,
		Clock:    clock,
		Logger:   logger,
		Observer: metrics,
	}, cfg.ServiceConfig())
	if err != nil {
		return nil, err
	}

	profiles, err := profile.NewService(profilepg.NewRepository(pool), clock, logger, cfg.Store.Timeout)
	if err != nil {
		return nil, err
	}

	return &app{
		auth:     svc,
		profiles: profiles,
		cleanup:  auth.NewCleanupJob(tokens, logger, metrics),
	}, nil
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.SetupLevel(serviceName, version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := deps.PoolFactory(ctx, store.PoolConfig{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, pool.Ping)
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	a, err := newApp(cfg, pool, metrics, logger, deps)
	if err != nil {
		return err
	}

	router, err := httpapi.NewRouter(httpapi.Deps{
		Auth:        a.auth,
		Profiles:    a.profiles,
		Logger:      logger,
		Observer:    metrics,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	if err != nil {
		return err
	}

	var purge *scheduler.Periodic
	if cfg.Cleanup.Interval > 0 {
		purge, err = scheduler.NewPeriodic("token-cleanup", cfg.Cleanup.Interval, func(ctx context.Context) error {
			_, err := a.cleanup.Run(ctx)
			return err
		}, logger)
		if err != nil {
			return err
		}
	}

	api := deps.APIServerFactory(cfg.HTTP.Addr, router, logger)
	apiErrChan, err := api.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api", logger)
	started := []Server{api}

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			stopStarted(ctx, cfg.HTTP.ShutdownTimeout, logger, started...)
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		started = append(started, obsServer)
	}

	if purge != nil {
		if err := purge.Start(ctx); err != nil {
			stopStarted(ctx, cfg.HTTP.ShutdownTimeout, logger, started...)
			return err
		}
		defer purge.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Accounts service started on " + api.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// stopStarted shuts down servers that were started before a later startup
// step failed.
func stopStarted(ctx context.Context, timeout time.Duration, logger *slog.Logger, servers ...Server) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("failed to stop server during cleanup", "addr", srv.Addr(), "error", err)
		}
	}
}

// monitorServerErrors cancels the context when a server fails. It exits when
// an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
