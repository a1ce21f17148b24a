// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"context"
	"log/slog"
)

// CleanupObserver receives the outcome of each cleanup run.
type CleanupObserver interface {
	CleanupCompleted(purged int64, err error)
}

// CleanupJob purges expired opaque tokens. It owns no schedule; callers
// invoke Run from a cron entry or a periodic runner.
type CleanupJob struct {
	tokens   *OpaqueTokenStore
	logger   *slog.Logger
	observer CleanupObserver
}

// NewCleanupJob creates a CleanupJob. observer may be nil.
func NewCleanupJob(tokens *OpaqueTokenStore, logger *slog.Logger, observer CleanupObserver) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{tokens: tokens, logger: logger, observer: observer}
}

// Run deletes every token that has expired and returns how many were removed.
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "auth.cleanup")
	defer span.End()

	purged, err := j.tokens.PurgeExpired(ctx)
	if j.observer != nil {
		j.observer.CleanupCompleted(purged, err)
	}
	if err != nil {
		span.RecordError(err)
		return purged, err
	}

	j.logger.InfoContext(ctx, "expired tokens purged", "count", purged)
	return purged, nil
}
