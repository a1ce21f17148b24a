// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package auth implements the credential and token lifecycle of the
// accounts service.
//
// # Components
//
//   - PasswordHasher - one-way salted password hashes (argon2id, legacy bcrypt)
//   - TokenCodec - signed, self-expiring claim sets for access and activation tokens
//   - OpaqueTokenStore - stored refresh and password-reset tokens
//   - Service - registration, activation, login, refresh, logout and password flows
//   - CleanupJob - purges expired opaque tokens
//
// # Domain Types
//
// Domain types (User, OpaqueToken) should be created using their
// constructors, NewUser and NewOpaqueToken. Direct struct initialization
// bypasses validation. Repository implementations receive pre-validated types.
//
// # Errors
//
// Every error returned by Service carries an oops code; use ErrorCode to
// read it and IsEnvironmentFault to separate infrastructure faults from
// rejected input. Repositories return ErrNotFound and ErrConflict and
// attach context without a code.
package auth
