// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

//go:build integration

package accounts_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
)

const password = "Sup3r-secret"

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		svc *services
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
		svc = newServices()
	})

	// activeUser registers and activates email, returning the user.
	activeUser := func(email string) *auth.User {
		user, err := svc.Auth.Register(ctx, email, password)
		Expect(err).NotTo(HaveOccurred())

		msg, ok := svc.Notifier.Last(auth.NotifyActivation)
		Expect(ok).To(BeTrue())
		Expect(svc.Auth.VerifyEmail(ctx, msg.Token)).To(Succeed())
		return user
	}

	Describe("registration and activation", func() {
		It("refuses login until the account is activated", func() {
			_, err := svc.Auth.Register(ctx, "New@Example.com", password)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Auth.Login(ctx, "new@example.com", password)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeAccountNotActivated))

			msg, ok := svc.Notifier.Last(auth.NotifyActivation)
			Expect(ok).To(BeTrue())
			Expect(msg.Address).To(Equal("new@example.com"))
			Expect(svc.Auth.VerifyEmail(ctx, msg.Token)).To(Succeed())

			pair, err := svc.Auth.Login(ctx, "NEW@example.com", password)
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.TokenType).To(Equal("bearer"))
		})

		It("rejects a second registration of the same email", func() {
			activeUser("taken@example.com")

			_, err := svc.Auth.Register(ctx, "TAKEN@example.com", password)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeDuplicateEmail))
		})

		It("rejects an activation token after it expires", func() {
			_, err := svc.Auth.Register(ctx, "late@example.com", password)
			Expect(err).NotTo(HaveOccurred())
			msg, _ := svc.Notifier.Last(auth.NotifyActivation)

			svc.Clock.Advance(auth.DefaultVerifyTokenTTL + time.Second)
			Expect(auth.ErrorCode(svc.Auth.VerifyEmail(ctx, msg.Token))).To(Equal(auth.CodeInvalidOrExpiredToken))
		})
	})

	Describe("sessions", func() {
		It("resolves the current user from the access token", func() {
			user := activeUser("me@example.com")
			pair, err := svc.Auth.Login(ctx, "me@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			got, err := svc.Auth.CurrentUser(ctx, pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))
			Expect(got.IsActive).To(BeTrue())
		})

		It("rotates refresh tokens and rejects reuse", func() {
			activeUser("rotate@example.com")
			pair, err := svc.Auth.Login(ctx, "rotate@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			next, err := svc.Auth.Refresh(ctx, pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.RefreshToken).NotTo(Equal(pair.RefreshToken))

			_, err = svc.Auth.Refresh(ctx, pair.RefreshToken)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
		})

		It("lets exactly one concurrent refresh win", func() {
			activeUser("race@example.com")
			pair, err := svc.Auth.Login(ctx, "race@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			const attempts = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				rejected  int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := svc.Auth.Refresh(ctx, pair.RefreshToken)
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
					} else if auth.ErrorCode(err) == auth.CodeInvalidOrExpiredToken {
						rejected++
					}
				}()
			}
			wg.Wait()

			Expect(successes).To(Equal(1))
			Expect(rejected).To(Equal(attempts - 1))
		})

		It("revokes the refresh token on logout", func() {
			activeUser("bye@example.com")
			pair, err := svc.Auth.Login(ctx, "bye@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Auth.Logout(ctx, pair.RefreshToken)).To(Succeed())
			Expect(svc.Auth.Logout(ctx, pair.RefreshToken)).To(Succeed())

			_, err = svc.Auth.Refresh(ctx, pair.RefreshToken)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
		})
	})

	Describe("passwords", func() {
		It("resets the password once per reset token", func() {
			activeUser("forgot@example.com")

			Expect(svc.Auth.RequestPasswordReset(ctx, "forgot@example.com")).To(Succeed())
			first, _ := svc.Notifier.Last(auth.NotifyPasswordReset)
			Expect(svc.Auth.RequestPasswordReset(ctx, "forgot@example.com")).To(Succeed())
			second, _ := svc.Notifier.Last(auth.NotifyPasswordReset)

			Expect(svc.Auth.ResetPassword(ctx, second.Token, "N3w-password")).To(Succeed())

			err := svc.Auth.ResetPassword(ctx, first.Token, "An0ther-one")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))

			_, err = svc.Auth.Login(ctx, "forgot@example.com", password)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidCredentials))
			_, err = svc.Auth.Login(ctx, "forgot@example.com", "N3w-password")
			Expect(err).NotTo(HaveOccurred())
		})

		It("changes the password after checking the current one", func() {
			user := activeUser("change@example.com")

			err := svc.Auth.ChangePassword(ctx, user.ID, "wrong", "N3w-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeIncorrectPassword))

			Expect(svc.Auth.ChangePassword(ctx, user.ID, password, "N3w-password")).To(Succeed())
			_, err = svc.Auth.Login(ctx, "change@example.com", "N3w-password")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("profiles", func() {
		It("starts empty and accepts partial updates", func() {
			user := activeUser("profile-flow@example.com")

			p, err := svc.Profiles.Get(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Email).To(Equal("profile-flow@example.com"))
			Expect(p.Group).To(Equal(auth.GroupUser))

			info := "Likes noir."
			p, err = svc.Profiles.Update(ctx, user.ID, profile.Patch{Info: &info})
			Expect(err).NotTo(HaveOccurred())
			Expect(*p.Info).To(Equal(info))
			Expect(p.FirstName).To(BeNil())
		})
	})

	Describe("cleanup", func() {
		It("purges only expired tokens", func() {
			activeUser("purge@example.com")
			stale, err := svc.Auth.Login(ctx, "purge@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			svc.Clock.Advance(auth.DefaultRefreshTokenTTL - time.Minute)
			fresh, err := svc.Auth.Login(ctx, "purge@example.com", password)
			Expect(err).NotTo(HaveOccurred())

			svc.Clock.Advance(2 * time.Minute)
			purged, err := svc.Cleanup.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(purged).To(Equal(int64(1)))

			_, err = svc.Tokens.Verify(ctx, auth.KindRefresh, stale.RefreshToken)
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = svc.Tokens.Verify(ctx, auth.KindRefresh, fresh.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
