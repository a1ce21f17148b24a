// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultStoreTimeout bounds every record store call made by OpaqueTokenStore.
const DefaultStoreTimeout = 5 * time.Second

// OpaqueTokenStore issues and revokes server-side tokens of every TokenKind.
type OpaqueTokenStore struct {
	repo    TokenRepository
	clock   Clock
	timeout time.Duration
}

// NewOpaqueTokenStore creates an OpaqueTokenStore. A non-positive timeout
// selects DefaultStoreTimeout.
func NewOpaqueTokenStore(repo TokenRepository, clock Clock, timeout time.Duration) (*OpaqueTokenStore, error) {
	if repo == nil {
		return nil, oops.Code("TOKEN_STORE_INVALID").Errorf("token repository is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &OpaqueTokenStore{repo: repo, clock: clock, timeout: timeout}, nil
}

// Create issues a new token of kind for userID and returns its plaintext
// value. A hash collision is retried once with fresh randomness.
func (s *OpaqueTokenStore) Create(ctx context.Context, kind TokenKind, userID ulid.ULID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", oops.Code("TOKEN_INVALID_EXPIRY").
			With("kind", kind.String()).
			With("ttl", ttl.String()).
			Errorf("token ttl must be positive")
	}

	var value string
	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, hash, err := GenerateOpaqueToken()
		if err != nil {
			return err
		}

		now := s.clock.Now()
		record, err := NewOpaqueToken(kind, userID, hash, now.Add(ttl), now)
		if err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.repo.Create(callCtx, record); err != nil {
			if errors.Is(err, ErrConflict) {
				return retry.RetryableError(err)
			}
			return err
		}

		value = token
		return nil
	})
	if err != nil {
		if ErrorCode(err) != "" {
			return "", err
		}
		return "", storageError("create token", err)
	}
	return value, nil
}

// Verify returns the record for value if it exists and has not expired.
// It never deletes. Absent and expired tokens both yield ErrNotFound.
func (s *OpaqueTokenStore) Verify(ctx context.Context, kind TokenKind, value string) (*OpaqueToken, error) {
	if value == "" {
		return nil, ErrNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.repo.GetByHash(callCtx, kind, HashOpaqueToken(value))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get token", err)
	}
	if record.IsExpiredAt(s.clock.Now()) {
		return nil, ErrNotFound
	}
	return record, nil
}

// Consume atomically deletes and returns a still-valid token. Of any number
// of concurrent callers presenting the same value, at most one succeeds; the
// rest get ErrNotFound.
func (s *OpaqueTokenStore) Consume(ctx context.Context, kind TokenKind, value string) (*OpaqueToken, error) {
	if value == "" {
		return nil, ErrNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.repo.ConsumeByHash(callCtx, kind, HashOpaqueToken(value), s.clock.Now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("consume token", err)
	}
	return record, nil
}

// Delete revokes value. Deleting an absent token is not an error.
func (s *OpaqueTokenStore) Delete(ctx context.Context, kind TokenKind, value string) error {
	if value == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.DeleteByHash(callCtx, kind, HashOpaqueToken(value)); err != nil {
		return storageError("delete token", err)
	}
	return nil
}

// DeleteForUser revokes every token of kind owned by userID.
func (s *OpaqueTokenStore) DeleteForUser(ctx context.Context, kind TokenKind, userID ulid.ULID) (int64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repo.DeleteByUser(callCtx, kind, userID)
	if err != nil {
		return 0, storageError("delete user tokens", err)
	}
	return n, nil
}

// PurgeExpired removes tokens of every kind whose expiry is at or before now.
// Tokens still inside their validity window are never touched.
func (s *OpaqueTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	var total int64
	for _, kind := range TokenKinds {
		n, err := s.purgeKind(ctx, kind, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *OpaqueTokenStore) purgeKind(ctx context.Context, kind TokenKind, now time.Time) (int64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repo.DeleteExpired(callCtx, kind, now)
	if err != nil {
		return 0, oops.Code(CodeStorage).
			With("operation", "purge expired tokens").
			With("kind", kind.String()).
			Wrap(err)
	}
	return n, nil
}
