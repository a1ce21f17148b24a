// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
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

const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.is_active, u.group_id, g.name,
	       u.created_at, u.updated_at
	FROM users u
	JOIN user_groups g ON g.id = u.group_id
`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and its empty profile in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.With("operation", "begin transaction").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, is_active, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.GroupID,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return insertError("insert user", user, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1)`, user.ID.String()); err != nil {
		return insertError("insert profile", user, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.With("operation", "commit user").With("user_id", user.ID.String()).Wrap(err)
	}
	return nil
}

func insertError(operation string, user *auth.User, err error) error {
	if store.IsUniqueViolation(err) {
		return oops.
			With("operation", operation).
			With("constraint", store.ConstraintName(err)).
			Wrap(auth.ErrConflict)
	}
	return oops.
		With("operation", operation).
		With("user_id", user.ID.String()).
		Wrap(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`WHERE u.id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by id").With("user_id", id.String()).Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`WHERE LOWER(u.email) = LOWER($1)`, auth.NormalizeEmail(email))

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by email").Wrap(err)
	}
	return user, nil
}

// SetActive marks the user as activated.
func (r *UserRepository) SetActive(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = TRUE, updated_at = now() WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.With("operation", "activate user").With("user_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id.String(), passwordHash)
	if err != nil {
		return oops.With("operation", "update password").With("user_id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// pgx.ErrNoRows is returned unchanged.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr     string
		user      auth.User
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&idStr,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.GroupID,
		&user.GroupName,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("user_id", idStr).Wrap(err)
	}
	user.ID = id
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
