// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/store"
)

const tokenColumns = `id, kind, user_id, token_hash, expires_at, created_at`

// TokenRepository implements auth.TokenRepository using PostgreSQL.
// Every query is scoped by kind so refresh and reset tokens never collide.
type TokenRepository struct {
	pool store.Pool
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool store.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores a new token record.
func (r *TokenRepository) Create(ctx context.Context, token *auth.OpaqueToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO opaque_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		token.ID.String(),
		string(token.Kind),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if store.IsUniqueViolation(err) {
		return oops.
			With("operation", "insert token").
			With("kind", token.Kind.String()).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.
			With("operation", "insert token").
			With("kind", token.Kind.String()).
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByHash retrieves a token record without checking expiry.
func (r *TokenRepository) GetByHash(ctx context.Context, kind auth.TokenKind, tokenHash string) (*auth.OpaqueToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM opaque_tokens
		WHERE kind = $1 AND token_hash = $2
	`, string(kind), tokenHash)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("kind", kind.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get token").With("kind", kind.String()).Wrap(err)
	}
	return token, nil
}

// ConsumeByHash deletes an unexpired token and returns it in one statement,
// so at most one concurrent caller observes the record.
func (r *TokenRepository) ConsumeByHash(ctx context.Context, kind auth.TokenKind, tokenHash string, now time.Time) (*auth.OpaqueToken, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM opaque_tokens
		WHERE kind = $1 AND token_hash = $2 AND expires_at > $3
		RETURNING `+tokenColumns+`
	`, string(kind), tokenHash, now)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("kind", kind.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "consume token").With("kind", kind.String()).Wrap(err)
	}
	return token, nil
}

// DeleteByHash removes a token record. Deleting a missing record is not an error.
func (r *TokenRepository) DeleteByHash(ctx context.Context, kind auth.TokenKind, tokenHash string) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM opaque_tokens WHERE kind = $1 AND token_hash = $2
	`, string(kind), tokenHash)
	if err != nil {
		return 0, oops.With("operation", "delete token").With("kind", kind.String()).Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteByUser removes every token of kind owned by userID.
func (r *TokenRepository) DeleteByUser(ctx context.Context, kind auth.TokenKind, userID ulid.ULID) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM opaque_tokens WHERE kind = $1 AND user_id = $2
	`, string(kind), userID.String())
	if err != nil {
		return 0, oops.
			With("operation", "delete tokens by user").
			With("kind", kind.String()).
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes every token of kind whose expiry is at or before now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, kind auth.TokenKind, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM opaque_tokens WHERE kind = $1 AND expires_at <= $2
	`, string(kind), now)
	if err != nil {
		return 0, oops.With("operation", "delete expired tokens").With("kind", kind.String()).Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanToken scans a single row into an OpaqueToken.
// pgx.ErrNoRows is returned unchanged.
func scanToken(row pgx.Row) (*auth.OpaqueToken, error) {
	var (
		idStr     string
		kind      string
		userIDStr string
		token     auth.OpaqueToken
	)
	if err := row.Scan(&idStr, &kind, &userIDStr, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse token id").With("token_id", idStr).Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.With("operation", "parse token user id").With("user_id", userIDStr).Wrap(err)
	}

	token.ID = id
	token.Kind = auth.TokenKind(kind)
	token.UserID = userID
	return &token, nil
}

// Compile-time interface check.
var _ auth.TokenRepository = (*TokenRepository)(nil)
