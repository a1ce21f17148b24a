// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package httpapi exposes the credential and profile flows over JSON/HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
)

// BasePath prefixes every API route except /health.
const BasePath = "/api/v1"

// AuthService is the subset of *auth.Service used by the handlers.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*auth.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, accessToken string) (*auth.User, error)
}

// ProfileService is the subset of *profile.Service used by the handlers.
type ProfileService interface {
	Get(ctx context.Context, userID ulid.ULID) (*profile.Profile, error)
	Update(ctx context.Context, userID ulid.ULID, patch profile.Patch) (*profile.Profile, error)
}

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

var (
	_ AuthService    = (*auth.Service)(nil)
	_ ProfileService = (*profile.Service)(nil)
)

// Deps are the collaborators of the router. Logger, Observer and
// CORSOrigins are optional.
type Deps struct {
	Auth     AuthService
	Profiles ProfileService
	Logger   *slog.Logger
	Observer RequestObserver
	// CORSOrigins are glob patterns of allowed browser origins.
	CORSOrigins []string
}

type handler struct {
	auth     AuthService
	profiles ProfileService
	logger   *slog.Logger
}

// NewRouter builds the gin engine serving the API.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Auth == nil || deps.Profiles == nil {
		return nil, oops.Code("HTTPAPI_INVALID_DEPS").Errorf("auth and profile services are required")
	}
	if err := registerValidators(); err != nil {
		return nil, err
	}
	cors, err := corsMiddleware(deps.CORSOrigins)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{auth: deps.Auth, profiles: deps.Profiles, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestMiddleware(logger, deps.Observer), cors)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group(BasePath)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.GET("/verify", h.verifyEmail)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)
	authGroup.POST("/logout", h.logout)
	authGroup.POST("/request-password-reset", h.requestPasswordReset)
	authGroup.POST("/reset-password", h.resetPassword)
	authGroup.POST("/change-password", h.requireUser, h.changePassword)

	users := v1.Group("/users", h.requireUser)
	users.GET("/me", h.getProfile)
	users.PUT("/me/update", h.updateProfile)

	return r, nil
}
