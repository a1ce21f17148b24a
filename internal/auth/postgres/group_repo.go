// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/store"
)

// GroupRepository implements auth.GroupRepository using PostgreSQL.
type GroupRepository struct {
	pool store.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool store.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByName retrieves a group by name.
func (r *GroupRepository) GetByName(ctx context.Context, name string) (*auth.Group, error) {
	var group auth.Group
	err := r.pool.QueryRow(ctx, `
		SELECT id, name FROM user_groups WHERE name = $1
	`, name).Scan(&group.ID, &group.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("group", name).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get group").With("group", name).Wrap(err)
	}
	return &group, nil
}

// Ensure inserts the group if it does not exist and returns it.
func (r *GroupRepository) Ensure(ctx context.Context, name string) (*auth.Group, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO user_groups (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
	`, name); err != nil {
		return nil, oops.With("operation", "ensure group").With("group", name).Wrap(err)
	}
	return r.GetByName(ctx, name)
}

// Compile-time interface check.
var _ auth.GroupRepository = (*GroupRepository)(nil)
