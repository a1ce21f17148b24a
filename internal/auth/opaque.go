// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// OpaqueTokenBytes is the amount of randomness in an opaque token value.
const OpaqueTokenBytes = 32 // 32 bytes = 64 hex chars

// TokenKind discriminates the server-side token families.
type TokenKind string

// Token kinds stored in the opaque_tokens table.
const (
	KindRefresh       TokenKind = "refresh"
	KindPasswordReset TokenKind = "password_reset"
)

// TokenKinds lists every kind, in the order they are purged.
var TokenKinds = []TokenKind{KindRefresh, KindPasswordReset}

// Valid reports whether k is a known kind.
func (k TokenKind) Valid() bool {
	return k == KindRefresh || k == KindPasswordReset
}

func (k TokenKind) String() string {
	return string(k)
}

// OpaqueToken is a stored, single-use token. Only the SHA-256 hash of the
// plaintext value is kept.
type OpaqueToken struct {
	ID        ulid.ULID
	Kind      TokenKind
	UserID    ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewOpaqueToken creates a validated OpaqueToken.
func NewOpaqueToken(kind TokenKind, userID ulid.ULID, tokenHash string, expiresAt, createdAt time.Time) (*OpaqueToken, error) {
	if !kind.Valid() {
		return nil, oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(createdAt) {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry must be after creation time")
	}

	return &OpaqueToken{
		ID:        ulid.Make(),
		Kind:      kind,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// IsExpiredAt reports whether the token is no longer valid at t.
// A token whose expiry equals t is already expired.
func (t *OpaqueToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// GenerateOpaqueToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
func GenerateOpaqueToken() (token, hash string, err error) {
	tokenBytes := make([]byte, OpaqueTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code(CodeTokenIssueFailed).
			With("operation", "crypto/rand.Read").
			With("requested_bytes", OpaqueTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashOpaqueToken(token), nil
}

// HashOpaqueToken computes the SHA-256 hash under which a token is stored.
func HashOpaqueToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenRepository manages opaque token persistence. Every method is a single
// committed statement.
type TokenRepository interface {
	// Create stores a new token. Returns an error wrapping ErrConflict if the
	// hash already exists.
	Create(ctx context.Context, token *OpaqueToken) error

	// GetByHash retrieves a token regardless of expiry.
	// Returns ErrNotFound if no token has the hash.
	GetByHash(ctx context.Context, kind TokenKind, tokenHash string) (*OpaqueToken, error)

	// ConsumeByHash atomically deletes and returns a token that is still
	// valid at now. Returns ErrNotFound if no such row was deleted.
	ConsumeByHash(ctx context.Context, kind TokenKind, tokenHash string, now time.Time) (*OpaqueToken, error)

	// DeleteByHash removes a token and returns the number of rows removed.
	DeleteByHash(ctx context.Context, kind TokenKind, tokenHash string) (int64, error)

	// DeleteByUser removes every token of kind owned by userID.
	DeleteByUser(ctx context.Context, kind TokenKind, userID ulid.ULID) (int64, error)

	// DeleteExpired removes tokens of kind with expires_at <= now.
	DeleteExpired(ctx context.Context, kind TokenKind, now time.Time) (int64, error)
}
