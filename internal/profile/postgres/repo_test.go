// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
	"github.com/onlinecinema/accounts/pkg/errutil"
)

var profileColumns = []string{
	"id", "user_id", "first_name", "last_name", "avatar", "gender",
	"date_of_birth", "info", "email", "name",
}

func ptr[T any](v T) *T { return &v }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestRepository_GetByUser(t *testing.T) {
	userID := ulid.Make()

	t.Run("empty profile", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM user_profiles p\s+JOIN users u`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
				int64(7), userID.String(), nil, nil, nil, nil, nil, nil, "viewer@example.com", auth.GroupUser))

		p, err := NewRepository(mock).GetByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, userID, p.UserID)
		assert.Nil(t, p.FirstName)
		assert.Nil(t, p.Gender)
		assert.Equal(t, "viewer@example.com", p.Email)
		assert.Equal(t, auth.GroupUser, p.Group)
	})

	t.Run("filled profile", func(t *testing.T) {
		dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM user_profiles p`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
				int64(7), userID.String(), ptr("Ada"), ptr("Lovelace"), nil, ptr("WOMAN"), &dob, ptr("hi"),
				"viewer@example.com", auth.GroupUser))

		p, err := NewRepository(mock).GetByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", *p.FirstName)
		assert.Equal(t, profile.GenderWoman, *p.Gender)
		assert.True(t, dob.Equal(*p.DateOfBirth))
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM user_profiles p`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows(profileColumns))

		_, err := NewRepository(mock).GetByUser(context.Background(), userID)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM user_profiles p`).
			WithArgs(userID.String()).
			WillReturnError(errors.New("connection refused"))

		_, err := NewRepository(mock).GetByUser(context.Background(), userID)
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "get profile")
	})
}

func TestRepository_Update_OnlyPatchedColumns(t *testing.T) {
	userID := ulid.Make()
	mock := newMockPool(t)
	mock.ExpectQuery(`UPDATE user_profiles p SET first_name = \$2, gender = \$3\s+FROM users u`).
		WithArgs(userID.String(), "Ada", "WOMAN").
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
			int64(7), userID.String(), ptr("Ada"), ptr("Lovelace"), nil, ptr("WOMAN"), nil, nil,
			"viewer@example.com", auth.GroupUser))

	gender := profile.GenderWoman
	p, err := NewRepository(mock).Update(context.Background(), userID, profile.Patch{
		FirstName: ptr("Ada"),
		Gender:    &gender,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", *p.LastName, "unpatched column is returned as stored")
}

func TestRepository_Update_Missing(t *testing.T) {
	userID := ulid.Make()
	mock := newMockPool(t)
	mock.ExpectQuery(`UPDATE user_profiles p SET info = \$2`).
		WithArgs(userID.String(), "bio").
		WillReturnRows(pgxmock.NewRows(profileColumns))

	_, err := NewRepository(mock).Update(context.Background(), userID, profile.Patch{Info: ptr("bio")})
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestRepository_Update_EmptyPatchReads(t *testing.T) {
	userID := ulid.Make()
	mock := newMockPool(t)
	mock.ExpectQuery(`SELECT .+ FROM user_profiles p`).
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
			int64(7), userID.String(), nil, nil, nil, nil, nil, nil, "viewer@example.com", auth.GroupUser))

	_, err := NewRepository(mock).Update(context.Background(), userID, profile.Patch{})
	require.NoError(t, err)
}

func TestUpdateColumns(t *testing.T) {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	sets, args := updateColumns(profile.Patch{
		LastName:    ptr("Hopper"),
		Avatar:      ptr("https://cdn.example.com/a.png"),
		DateOfBirth: &dob,
	})
	assert.Equal(t, []string{"last_name = $2", "avatar = $3", "date_of_birth = $4"}, sets)
	assert.Equal(t, []any{"Hopper", "https://cdn.example.com/a.png", dob}, args)
}
