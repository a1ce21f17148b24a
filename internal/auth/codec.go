// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Claim names understood by the service layer.
const (
	ClaimSubject = "sub"
	ClaimPurpose = "purpose"
	ClaimEmail   = "email"
	ClaimGroup   = "group"
)

// Token purposes carried in the purpose claim. A token minted for one
// purpose is never accepted for another.
const (
	PurposeAccess            = "access"
	PurposeEmailVerification = "email_verification"
)

// DefaultAlgorithm is the signing algorithm used when none is configured.
const DefaultAlgorithm = "HS256"

// TokenCodec issues and verifies signed, self-expiring claim sets.
// It holds no state beyond its immutable key material.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	clock  Clock
	logger *slog.Logger
}

// NewTokenCodec creates a TokenCodec for an HMAC algorithm (HS256, HS384 or HS512).
func NewTokenCodec(secret []byte, algorithm string, clock Clock, logger *slog.Logger) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_CODEC_INVALID").Errorf("signing secret cannot be empty")
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code("AUTH_CODEC_INVALID").
			With("algorithm", algorithm).
			Errorf("unsupported signing algorithm %q", algorithm)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// copy so later mutation of the caller's slice cannot change the key
	key := make([]byte, len(secret))
	copy(key, secret)

	return &TokenCodec{secret: key, method: method, clock: clock, logger: logger}, nil
}

// Algorithm returns the configured signing algorithm.
func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs claims with exp = now + ttl. The registered claims exp, iat and
// jti are always set by the codec and override any caller-supplied values.
func (c *TokenCodec) Issue(claims map[string]string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", oops.Code(CodeTokenIssueFailed).
			With("ttl", ttl.String()).
			Errorf("token ttl must be positive")
	}

	now := c.clock.Now()
	mapClaims := make(jwt.MapClaims, len(claims)+3)
	for k, v := range claims {
		mapClaims[k] = v
	}
	mapClaims["iat"] = jwt.NewNumericDate(now)
	mapClaims["exp"] = jwt.NewNumericDate(expiryCeil(now.Add(ttl)))
	mapClaims["jti"] = ulid.Make().String()

	signed, err := jwt.NewWithClaims(c.method, mapClaims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code(CodeTokenIssueFailed).
			With("algorithm", c.method.Alg()).
			Wrap(err)
	}
	return signed, nil
}

// expiryCeil rounds t up to the NumericDate precision, so a token never
// expires before now + ttl.
func expiryCeil(t time.Time) time.Time {
	truncated := t.Truncate(jwt.TimePrecision)
	if truncated.Before(t) {
		return truncated.Add(jwt.TimePrecision)
	}
	return truncated
}

// Verify checks the algorithm, signature and expiry of token and returns its
// string-valued claims. Malformed, tampered, wrongly-signed and expired tokens
// all produce the same error; the actual reason is only logged at debug level.
func (c *TokenCodec) Verify(token string) (map[string]string, error) {
	if token == "" {
		return nil, invalidOrExpiredToken()
	}

	mapClaims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, mapClaims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		c.logger.Debug("token rejected", "reason", err.Error())
		return nil, invalidOrExpiredToken()
	}

	claims := make(map[string]string, len(mapClaims))
	for k, v := range mapClaims {
		if s, ok := v.(string); ok {
			claims[k] = s
		}
	}
	return claims, nil
}
