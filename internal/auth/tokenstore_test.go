// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/auth/authtest"
	"github.com/onlinecinema/accounts/internal/auth/mocks"
	"github.com/onlinecinema/accounts/pkg/errutil"
)

func newTestStore(t *testing.T) (*auth.OpaqueTokenStore, *authtest.Tokens, *authtest.FakeClock) {
	t.Helper()
	repo := authtest.NewTokens()
	clock := authtest.NewFakeClock(epoch)
	store, err := auth.NewOpaqueTokenStore(repo, clock, time.Second)
	require.NoError(t, err)
	return store, repo, clock
}

func TestNewOpaqueTokenStore_NilRepository(t *testing.T) {
	store, err := auth.NewOpaqueTokenStore(nil, nil, 0)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "token repository is required")
}

func TestOpaqueTokenStore_CreateVerify(t *testing.T) {
	ctx := context.Background()
	store, repo, clock := newTestStore(t)
	userID := ulid.Make()

	value, err := store.Create(ctx, auth.KindRefresh, userID, time.Hour)
	require.NoError(t, err)
	assert.Len(t, value, 64) // 32 bytes hex-encoded

	// only the hash is stored
	assert.False(t, repo.Has(auth.KindRefresh, value))
	assert.True(t, repo.Has(auth.KindRefresh, auth.HashOpaqueToken(value)))

	record, err := store.Verify(ctx, auth.KindRefresh, value)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, auth.KindRefresh, record.Kind)
	assert.Equal(t, clock.Now().Add(time.Hour), record.ExpiresAt)

	t.Run("verify does not delete", func(t *testing.T) {
		_, err := store.Verify(ctx, auth.KindRefresh, value)
		require.NoError(t, err)
	})

	t.Run("kinds are separate", func(t *testing.T) {
		_, err := store.Verify(ctx, auth.KindPasswordReset, value)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("expired at exactly expires_at", func(t *testing.T) {
		clock.Set(epoch.Add(time.Hour))
		_, err := store.Verify(ctx, auth.KindRefresh, value)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		// expired records are not eagerly deleted
		assert.True(t, repo.Has(auth.KindRefresh, auth.HashOpaqueToken(value)))
	})

	t.Run("unknown and empty values", func(t *testing.T) {
		_, err := store.Verify(ctx, auth.KindRefresh, "deadbeef")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		_, err = store.Verify(ctx, auth.KindRefresh, "")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestOpaqueTokenStore_CreateRejectsNonPositiveTTL(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.Create(context.Background(), auth.KindRefresh, ulid.Make(), 0)
	errutil.AssertErrorCode(t, err, "TOKEN_INVALID_EXPIRY")
}

func TestOpaqueTokenStore_CreateRetriesCollisionOnce(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTokenRepository(t)
	store, err := auth.NewOpaqueTokenStore(repo, authtest.NewFakeClock(epoch), time.Second)
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*auth.OpaqueToken")).
		Return(fmt.Errorf("insert: %w", auth.ErrConflict)).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*auth.OpaqueToken")).
		Return(nil).Once()

	value, err := store.Create(ctx, auth.KindPasswordReset, ulid.Make(), time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, value)

	first := repo.Calls[0].Arguments.Get(1).(*auth.OpaqueToken)
	second := repo.Calls[1].Arguments.Get(1).(*auth.OpaqueToken)
	assert.NotEqual(t, first.TokenHash, second.TokenHash, "retry uses fresh randomness")
	assert.Equal(t, auth.HashOpaqueToken(value), second.TokenHash)
}

func TestOpaqueTokenStore_CreateGivesUpAfterSecondCollision(t *testing.T) {
	repo := mocks.NewMockTokenRepository(t)
	store, err := auth.NewOpaqueTokenStore(repo, authtest.NewFakeClock(epoch), time.Second)
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.Anything).Return(auth.ErrConflict).Twice()

	value, err := store.Create(context.Background(), auth.KindRefresh, ulid.Make(), time.Hour)
	require.Error(t, err)
	assert.Empty(t, value)
	errutil.AssertErrorCode(t, err, auth.CodeStorage)
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestOpaqueTokenStore_StorageFailures(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection refused")

	repo := mocks.NewMockTokenRepository(t)
	store, err := auth.NewOpaqueTokenStore(repo, authtest.NewFakeClock(epoch), time.Second)
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.Anything).Return(dbErr).Once()
	repo.On("GetByHash", mock.Anything, auth.KindRefresh, mock.Anything).Return(nil, dbErr).Once()
	repo.On("ConsumeByHash", mock.Anything, auth.KindRefresh, mock.Anything, epoch).Return(nil, dbErr).Once()
	repo.On("DeleteByHash", mock.Anything, auth.KindRefresh, mock.Anything).Return(int64(0), dbErr).Once()
	repo.On("DeleteByUser", mock.Anything, auth.KindPasswordReset, mock.Anything).Return(int64(0), dbErr).Once()
	repo.On("DeleteExpired", mock.Anything, auth.KindRefresh, epoch).Return(int64(0), dbErr).Once()

	_, err = store.Create(ctx, auth.KindRefresh, ulid.Make(), time.Hour)
	errutil.AssertErrorCode(t, err, auth.CodeStorage)

	_, err = store.Verify(ctx, auth.KindRefresh, "value")
	errutil.AssertErrorCode(t, err, auth.CodeStorage)

	_, err = store.Consume(ctx, auth.KindRefresh, "value")
	errutil.AssertErrorCode(t, err, auth.CodeStorage)

	err = store.Delete(ctx, auth.KindRefresh, "value")
	errutil.AssertErrorCode(t, err, auth.CodeStorage)

	_, err = store.DeleteForUser(ctx, auth.KindPasswordReset, ulid.Make())
	errutil.AssertErrorCode(t, err, auth.CodeStorage)

	_, err = store.PurgeExpired(ctx)
	errutil.AssertErrorCode(t, err, auth.CodeStorage)
	errutil.AssertErrorContext(t, err, "kind", "refresh")
	assert.True(t, auth.IsEnvironmentFault(err))
}

func TestOpaqueTokenStore_CallsRunUnderTimeout(t *testing.T) {
	repo := mocks.NewMockTokenRepository(t)
	store, err := auth.NewOpaqueTokenStore(repo, authtest.NewFakeClock(epoch), 50*time.Millisecond)
	require.NoError(t, err)

	repo.On("GetByHash", mock.Anything, auth.KindRefresh, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "store call must carry a deadline")
			assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	_, err = store.Verify(context.Background(), auth.KindRefresh, "value")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpaqueTokenStore_Consume(t *testing.T) {
	ctx := context.Background()
	store, repo, clock := newTestStore(t)
	userID := ulid.Make()

	value, err := store.Create(ctx, auth.KindRefresh, userID, time.Hour)
	require.NoError(t, err)

	record, err := store.Consume(ctx, auth.KindRefresh, value)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, 0, repo.Len(auth.KindRefresh))

	_, err = store.Consume(ctx, auth.KindRefresh, value)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	t.Run("expired token cannot be consumed", func(t *testing.T) {
		expiring, err := store.Create(ctx, auth.KindRefresh, userID, time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		_, err = store.Consume(ctx, auth.KindRefresh, expiring)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestOpaqueTokenStore_ConcurrentConsumeHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	value, err := store.Create(ctx, auth.KindRefresh, ulid.Make(), time.Hour)
	require.NoError(t, err)

	const callers = 32
	var wins, misses atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := store.Consume(ctx, auth.KindRefresh, value); err == nil {
				wins.Add(1)
			} else if errors.Is(err, auth.ErrNotFound) {
				misses.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(callers-1), misses.Load())
}

func TestOpaqueTokenStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, repo, _ := newTestStore(t)

	value, err := store.Create(ctx, auth.KindRefresh, ulid.Make(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, auth.KindRefresh, value))
	assert.Equal(t, 0, repo.Len(auth.KindRefresh))

	// idempotent
	require.NoError(t, store.Delete(ctx, auth.KindRefresh, value))
	require.NoError(t, store.Delete(ctx, auth.KindRefresh, ""))
	require.NoError(t, store.Delete(ctx, auth.KindRefresh, "never-issued"))
}

func TestOpaqueTokenStore_DeleteForUser(t *testing.T) {
	ctx := context.Background()
	store, repo, _ := newTestStore(t)
	alice, bob := ulid.Make(), ulid.Make()

	for range 3 {
		_, err := store.Create(ctx, auth.KindPasswordReset, alice, time.Hour)
		require.NoError(t, err)
	}
	bobToken, err := store.Create(ctx, auth.KindPasswordReset, bob, time.Hour)
	require.NoError(t, err)
	_, err = store.Create(ctx, auth.KindRefresh, alice, time.Hour)
	require.NoError(t, err)

	n, err := store.DeleteForUser(ctx, auth.KindPasswordReset, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = store.Verify(ctx, auth.KindPasswordReset, bobToken)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len(auth.KindRefresh))
}

func TestOpaqueTokenStore_PurgeExpiredOnlyRemovesExpired(t *testing.T) {
	ctx := context.Background()
	store, repo, clock := newTestStore(t)

	type seeded struct {
		kind      auth.TokenKind
		expiresIn time.Duration
		value     string
	}
	now := clock.Now()
	var tokens []seeded
	offsets := []time.Duration{-48 * time.Hour, -time.Second, 0, time.Nanosecond, time.Second, 72 * time.Hour}
	for _, kind := range auth.TokenKinds {
		for _, off := range offsets {
			value, hash, err := auth.GenerateOpaqueToken()
			require.NoError(t, err)
			repo.Put(auth.OpaqueToken{
				ID:        ulid.Make(),
				Kind:      kind,
				UserID:    ulid.Make(),
				TokenHash: hash,
				ExpiresAt: now.Add(off),
				CreatedAt: now.Add(off - time.Hour),
			})
			tokens = append(tokens, seeded{kind: kind, expiresIn: off, value: value})
		}
	}

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), purged, "three expired offsets per kind")

	for _, tok := range tokens {
		stored := repo.Has(tok.kind, auth.HashOpaqueToken(tok.value))
		if tok.expiresIn <= 0 {
			assert.False(t, stored, "%s expiring at now%+v must be purged", tok.kind, tok.expiresIn)
		} else {
			assert.True(t, stored, "%s expiring at now%+v must survive", tok.kind, tok.expiresIn)
			_, err := store.Verify(ctx, tok.kind, tok.value)
			assert.NoError(t, err)
		}
	}

	purged, err = store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestNewOpaqueToken_Validation(t *testing.T) {
	userID := ulid.Make()
	tests := []struct {
		name     string
		kind     auth.TokenKind
		userID   ulid.ULID
		hash     string
		expires  time.Time
		wantCode string
	}{
		{name: "unknown kind", kind: "session", userID: userID, hash: "h", expires: epoch.Add(time.Hour), wantCode: "TOKEN_INVALID_KIND"},
		{name: "zero user", kind: auth.KindRefresh, hash: "h", expires: epoch.Add(time.Hour), wantCode: "TOKEN_INVALID_USER"},
		{name: "empty hash", kind: auth.KindRefresh, userID: userID, expires: epoch.Add(time.Hour), wantCode: "TOKEN_INVALID_HASH"},
		{name: "expiry not after creation", kind: auth.KindRefresh, userID: userID, hash: "h", expires: epoch, wantCode: "TOKEN_INVALID_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := auth.NewOpaqueToken(tt.kind, tt.userID, tt.hash, tt.expires, epoch)
			require.Error(t, err)
			assert.Nil(t, token)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}

	token, err := auth.NewOpaqueToken(auth.KindPasswordReset, userID, "h", epoch.Add(time.Minute), epoch)
	require.NoError(t, err)
	assert.False(t, token.IsExpiredAt(epoch))
	assert.True(t, token.IsExpiredAt(epoch.Add(time.Minute)))
}

func TestGenerateOpaqueToken(t *testing.T) {
	token, hash, err := auth.GenerateOpaqueToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.Equal(t, auth.HashOpaqueToken(token), hash)

	other, _, err := auth.GenerateOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
