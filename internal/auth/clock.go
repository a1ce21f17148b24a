// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import "time"

// Clock supplies the current time. Every expiry comparison in this package
// goes through a Clock so tests can move time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
