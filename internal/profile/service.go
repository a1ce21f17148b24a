// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
)

// Error codes returned by Service.
const (
	CodeNotFound      = "PROFILE_NOT_FOUND"
	CodeInvalidGender = "PROFILE_INVALID_GENDER"
	CodeInvalidDate   = "PROFILE_INVALID_DATE_OF_BIRTH"
)

// Service reads and updates profiles.
type Service struct {
	repo    Repository
	now     func() time.Time
	logger  *slog.Logger
	timeout time.Duration
}

// NewService creates a Service. A nil logger falls back to slog.Default and
// a non-positive timeout selects auth.DefaultStoreTimeout.
func NewService(repo Repository, clock auth.Clock, logger *slog.Logger, timeout time.Duration) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("PROFILE_SERVICE_INVALID").Errorf("profile repository is required")
	}
	if clock == nil {
		clock = auth.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = auth.DefaultStoreTimeout
	}
	return &Service{repo: repo, now: clock.Now, logger: logger, timeout: timeout}, nil
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, userID ulid.ULID) (*Profile, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	p, err := s.repo.GetByUser(storeCtx, userID)
	if err != nil {
		return nil, s.mapError("get profile", userID, err)
	}
	return p, nil
}

// Update applies patch to the profile of userID. An empty patch returns the
// current profile unchanged.
func (s *Service) Update(ctx context.Context, userID ulid.ULID, patch Patch) (*Profile, error) {
	if patch.Empty() {
		return s.Get(ctx, userID)
	}
	if patch.Gender != nil && !patch.Gender.Valid() {
		return nil, oops.Code(CodeInvalidGender).
			With("gender", string(*patch.Gender)).
			Errorf("gender must be %s or %s", GenderMan, GenderWoman)
	}
	if patch.DateOfBirth != nil && patch.DateOfBirth.After(s.now()) {
		return nil, oops.Code(CodeInvalidDate).Errorf("date of birth cannot be in the future")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	p, err := s.repo.Update(storeCtx, userID, patch)
	if err != nil {
		return nil, s.mapError("update profile", userID, err)
	}
	s.logger.DebugContext(ctx, "profile updated", "user_id", userID.String())
	return p, nil
}

func (s *Service) mapError(operation string, userID ulid.ULID, err error) error {
	if errors.Is(err, auth.ErrNotFound) {
		return oops.Code(CodeNotFound).
			With("user_id", userID.String()).
			Errorf("profile not found")
	}
	return oops.Code(auth.CodeStorage).
		With("operation", operation).
		With("user_id", userID.String()).
		Wrap(err)
}
