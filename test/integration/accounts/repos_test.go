// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

//go:build integration

package accounts_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
)

var _ = Describe("UserRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
	})

	It("persists the user with its group and an empty profile", func() {
		user := createTestUser("viewer@example.com")

		got, err := env.Users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Email).To(Equal("viewer@example.com"))
		Expect(got.IsActive).To(BeFalse())
		Expect(got.GroupName).To(Equal(auth.GroupUser))

		p, err := env.Profiles.GetByUser(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Email).To(Equal("viewer@example.com"))
		Expect(p.FirstName).To(BeNil())
		Expect(p.DateOfBirth).To(BeNil())
	})

	It("looks up email case-insensitively", func() {
		user := createTestUser("mixed@example.com")

		got, err := env.Users.GetByEmail(ctx, "MIXED@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(user.ID))
	})

	It("rejects a duplicate email regardless of case", func() {
		createTestUser("dup@example.com")

		group, err := env.Groups.GetByName(ctx, auth.GroupUser)
		Expect(err).NotTo(HaveOccurred())
		other, err := auth.NewUser("Dup@Example.com", "hash", group, time.Now())
		Expect(err).NotTo(HaveOccurred())
		other.Email = "DUP@example.com"

		err = env.Users.Create(ctx, other)
		Expect(err).To(MatchError(auth.ErrConflict))
	})

	It("activates and updates the password", func() {
		user := createTestUser("active@example.com")

		Expect(env.Users.SetActive(ctx, user.ID)).To(Succeed())
		Expect(env.Users.UpdatePassword(ctx, user.ID, "new_hash")).To(Succeed())

		got, err := env.Users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsActive).To(BeTrue())
		Expect(got.PasswordHash).To(Equal("new_hash"))
	})

	It("reports missing users as not found", func() {
		_, err := env.Users.GetByID(ctx, ulid.Make())
		Expect(err).To(MatchError(auth.ErrNotFound))
		Expect(env.Users.SetActive(ctx, ulid.Make())).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("GroupRepository", func() {
	It("ensures groups idempotently", func() {
		first, err := env.Groups.Ensure(context.Background(), auth.GroupAdmin)
		Expect(err).NotTo(HaveOccurred())
		second, err := env.Groups.Ensure(context.Background(), auth.GroupAdmin)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.ID).To(Equal(first.ID))
	})
})

var _ = Describe("TokenRepository", func() {
	var (
		ctx  context.Context
		user *auth.User
		now  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
		user = createTestUser("tokens@example.com")
		now = time.Now().UTC().Truncate(time.Microsecond)
	})

	newToken := func(kind auth.TokenKind, hash string, expiresAt time.Time) *auth.OpaqueToken {
		return &auth.OpaqueToken{
			ID:        ulid.Make(),
			Kind:      kind,
			UserID:    user.ID,
			TokenHash: hash,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
	}

	It("consumes a live token exactly once", func() {
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "h1", now.Add(time.Hour)))).To(Succeed())

		got, err := env.Tokens.ConsumeByHash(ctx, auth.KindRefresh, "h1", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UserID).To(Equal(user.ID))

		_, err = env.Tokens.ConsumeByHash(ctx, auth.KindRefresh, "h1", now)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("does not consume an expired token", func() {
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "old", now))).To(Succeed())

		_, err := env.Tokens.ConsumeByHash(ctx, auth.KindRefresh, "old", now)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("keeps kinds apart", func() {
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "same", now.Add(time.Hour)))).To(Succeed())
		Expect(env.Tokens.Create(ctx, newToken(auth.KindPasswordReset, "same", now.Add(time.Hour)))).To(Succeed())

		_, err := env.Tokens.GetByHash(ctx, auth.KindPasswordReset, "same")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "same", now.Add(time.Hour)))).To(MatchError(auth.ErrConflict))
	})

	It("deletes by user and by expiry", func() {
		Expect(env.Tokens.Create(ctx, newToken(auth.KindPasswordReset, "r1", now.Add(time.Hour)))).To(Succeed())
		Expect(env.Tokens.Create(ctx, newToken(auth.KindPasswordReset, "r2", now.Add(time.Hour)))).To(Succeed())
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "expired", now.Add(-time.Minute)))).To(Succeed())
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "live", now.Add(time.Minute)))).To(Succeed())

		n, err := env.Tokens.DeleteByUser(ctx, auth.KindPasswordReset, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(2)))

		n, err = env.Tokens.DeleteExpired(ctx, auth.KindRefresh, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		_, err = env.Tokens.GetByHash(ctx, auth.KindRefresh, "live")
		Expect(err).NotTo(HaveOccurred())
	})

	It("removes tokens with their user", func() {
		Expect(env.Tokens.Create(ctx, newToken(auth.KindRefresh, "owned", now.Add(time.Hour)))).To(Succeed())

		_, err := env.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID.String())
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Tokens.GetByHash(ctx, auth.KindRefresh, "owned")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("ProfileRepository", func() {
	var (
		ctx  context.Context
		user *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
		user = createTestUser("profile@example.com")
	})

	It("updates only the fields present in the patch", func() {
		first, last := "Ada", "Lovelace"
		_, err := env.Profiles.Update(ctx, user.ID, profile.Patch{FirstName: &first, LastName: &last})
		Expect(err).NotTo(HaveOccurred())

		gender := profile.GenderWoman
		dob := time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC)
		got, err := env.Profiles.Update(ctx, user.ID, profile.Patch{Gender: &gender, DateOfBirth: &dob})
		Expect(err).NotTo(HaveOccurred())

		Expect(*got.FirstName).To(Equal("Ada"))
		Expect(*got.LastName).To(Equal("Lovelace"))
		Expect(*got.Gender).To(Equal(profile.GenderWoman))
		Expect(got.DateOfBirth.Format(profile.DateLayout)).To(Equal("1990-12-10"))
		Expect(got.Group).To(Equal(auth.GroupUser))
	})

	It("returns the profile unchanged for an empty patch", func() {
		got, err := env.Profiles.Update(ctx, user.ID, profile.Patch{})
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UserID).To(Equal(user.ID))
	})

	It("reports a missing profile as not found", func() {
		info := "nobody"
		_, err := env.Profiles.Update(ctx, ulid.Make(), profile.Patch{Info: &info})
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
