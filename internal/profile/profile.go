// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package profile manages the personal details attached to each user.
package profile

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Gender is the optional self-described gender of a profile.
type Gender string

// Valid genders.
const (
	GenderMan   Gender = "MAN"
	GenderWoman Gender = "WOMAN"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMan || g == GenderWoman
}

// DateLayout is the wire format of DateOfBirth.
const DateLayout = time.DateOnly

// Profile is a user's personal details. Every detail is optional; a profile
// is created empty at registration. Email and Group are read from the owning
// user and are not editable here.
type Profile struct {
	ID          int64
	UserID      ulid.ULID
	FirstName   *string
	LastName    *string
	Avatar      *string
	Gender      *Gender
	DateOfBirth *time.Time
	Info        *string
	Email       string
	Group       string
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	FirstName   *string
	LastName    *string
	Avatar      *string
	Gender      *Gender
	DateOfBirth *time.Time
	Info        *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Avatar == nil &&
		p.Gender == nil && p.DateOfBirth == nil && p.Info == nil
}

// Repository persists profiles.
type Repository interface {
	// GetByUser returns the profile of userID together with the user's email
	// and group name. Returns an error wrapping auth.ErrNotFound if missing.
	GetByUser(ctx context.Context, userID ulid.ULID) (*Profile, error)

	// Update applies patch atomically and returns the resulting profile.
	// Returns an error wrapping auth.ErrNotFound if missing.
	Update(ctx context.Context, userID ulid.ULID, patch Patch) (*Profile, error)
}
