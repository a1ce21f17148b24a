// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Group names seeded into user_groups.
const (
	GroupUser      = "USER"
	GroupModerator = "MODERATOR"
	GroupAdmin     = "ADMIN"
)

// DefaultGroup is attached to newly registered users.
const DefaultGroup = GroupUser

// GroupNames lists every group created by the seed command.
var GroupNames = []string{GroupUser, GroupModerator, GroupAdmin}

// Group is the single flat authorization label carried by a user.
type Group struct {
	ID   int64
	Name string
}

// User is an account identity. PasswordHash is the only credential facet;
// the plaintext password never reaches this type.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	IsActive     bool
	GroupID      int64
	GroupName    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an address. Emails are compared
// case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an inactive User attached to group.
func NewUser(email, passwordHash string, group *Group, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD_HASH").Errorf("password hash cannot be empty")
	}
	if group == nil {
		return nil, oops.Code(CodeMissingDefaultGroup).Errorf("group is required")
	}

	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     false,
		GroupID:      group.ID,
		GroupName:    group.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user together with an empty profile in one
	// transaction. Returns an error wrapping ErrConflict if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID, including its group name.
	// Returns ErrNotFound if no user has the ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetActive marks a user as activated.
	// Returns ErrNotFound if no user has the ID.
	SetActive(ctx context.Context, id ulid.ULID) error

	// UpdatePassword replaces the password hash of a user.
	// Returns ErrNotFound if no user has the ID.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}

// GroupRepository manages user groups.
type GroupRepository interface {
	// GetByName retrieves a group. Returns ErrNotFound if it does not exist.
	GetByName(ctx context.Context, name string) (*Group, error)

	// Ensure creates the group if missing and returns it either way.
	Ensure(ctx context.Context, name string) (*Group, error)
}
