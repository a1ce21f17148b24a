// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package postgres provides the PostgreSQL profile repository.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
	"github.com/onlinecinema/accounts/internal/store"
)

const returningProfile = `p.id, p.user_id, p.first_name, p.last_name, p.avatar, p.gender,
	p.date_of_birth, p.info, u.email, g.name`

// Repository implements profile.Repository using PostgreSQL.
type Repository struct {
	pool store.Pool
}

// NewRepository creates a new Repository.
func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUser retrieves the profile owned by userID.
func (r *Repository) GetByUser(ctx context.Context, userID ulid.ULID) (*profile.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+returningProfile+`
		FROM user_profiles p
		JOIN users u ON u.id = p.user_id
		JOIN user_groups g ON g.id = u.group_id
		WHERE p.user_id = $1
	`, userID.String())

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get profile").With("user_id", userID.String()).Wrap(err)
	}
	return p, nil
}

// Update sets only the columns present in patch, in a single statement.
func (r *Repository) Update(ctx context.Context, userID ulid.ULID, patch profile.Patch) (*profile.Profile, error) {
	if patch.Empty() {
		return r.GetByUser(ctx, userID)
	}

	sets, args := updateColumns(patch)
	args = append([]any{userID.String()}, args...)

	row := r.pool.QueryRow(ctx, `
		UPDATE user_profiles p SET `+strings.Join(sets, ", ")+`
		FROM users u
		JOIN user_groups g ON g.id = u.group_id
		WHERE p.user_id = $1 AND u.id = p.user_id
		RETURNING `+returningProfile, args...)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "update profile").With("user_id", userID.String()).Wrap(err)
	}
	return p, nil
}

// updateColumns renders the SET list for patch. Placeholders start at $2;
// $1 is the user id.
func updateColumns(patch profile.Patch) (sets []string, args []any) {
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)+1))
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.Gender != nil {
		add("gender", string(*patch.Gender))
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Info != nil {
		add("info", *patch.Info)
	}
	return sets, args
}

// scanProfile returns pgx.ErrNoRows unchanged.
func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p         profile.Profile
		userIDStr string
		gender    *string
		dob       *time.Time
	)
	if err := row.Scan(
		&p.ID,
		&userIDStr,
		&p.FirstName,
		&p.LastName,
		&p.Avatar,
		&gender,
		&dob,
		&p.Info,
		&p.Email,
		&p.Group,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.With("operation", "parse profile user id").With("user_id", userIDStr).Wrap(err)
	}
	p.UserID = userID
	if gender != nil {
		g := profile.Gender(*gender)
		p.Gender = &g
	}
	p.DateOfBirth = dob
	return &p, nil
}

// Compile-time interface check.
var _ profile.Repository = (*Repository)(nil)
