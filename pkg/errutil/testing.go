// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails the test unless err carries code. oops reports the
// deepest code in the chain.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr := requireOops(t, err)
	assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext fails the test unless err carries key=value in its
// merged oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr := requireOops(t, err)
	got, ok := oopsErr.Context()[key]
	require.True(t, ok, "context key %q missing from %v", key, oopsErr.Context())
	assert.Equal(t, value, got)
}

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}
