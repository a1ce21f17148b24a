// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by repositories when a unique constraint rejects a write.
var ErrConflict = errors.New("conflict")

// Error codes returned by Service. Callers switch on ErrorCode(err).
const (
	CodeDuplicateEmail        = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidCredentials    = "AUTH_INVALID_CREDENTIALS"
	CodeAccountNotActivated   = "AUTH_ACCOUNT_NOT_ACTIVATED"
	CodeInvalidOrExpiredToken = "AUTH_INVALID_OR_EXPIRED_TOKEN"
	CodeUserNotFound          = "AUTH_USER_NOT_FOUND"
	CodeIncorrectPassword     = "AUTH_INCORRECT_PASSWORD"
	CodeMalformedToken        = "AUTH_MALFORMED_TOKEN"
	CodeMissingDefaultGroup   = "AUTH_MISSING_DEFAULT_GROUP"
	CodeStorage               = "AUTH_STORAGE"
	CodeUnauthenticated       = "AUTH_UNAUTHENTICATED"
	CodeTokenIssueFailed      = "AUTH_TOKEN_ISSUE_FAILED"
	CodeHashFailed            = "AUTH_HASH_FAILED"
)

// ErrorCode returns the oops code carried by err, or "" for plain errors.
//
// Repositories attach context but no code, so the code seen here is the one
// assigned at the service boundary.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// IsEnvironmentFault reports whether err was caused by infrastructure or
// bootstrap configuration rather than by caller input.
func IsEnvironmentFault(err error) bool {
	switch ErrorCode(err) {
	case CodeStorage, CodeMissingDefaultGroup, CodeTokenIssueFailed, CodeHashFailed:
		return true
	default:
		return false
	}
}

func storageError(operation string, err error) error {
	return oops.Code(CodeStorage).
		With("operation", operation).
		Wrap(err)
}

func invalidOrExpiredToken() error {
	return oops.Code(CodeInvalidOrExpiredToken).Errorf("invalid or expired token")
}

func unauthenticated() error {
	return oops.Code(CodeUnauthenticated).Errorf("could not validate credentials")
}
