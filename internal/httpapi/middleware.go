// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
)

const userKey = "accounts.user"

// requireUser resolves the bearer token to a user or aborts with 401.
func (h *handler) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
			Detail: "Not authenticated",
			Code:   auth.CodeUnauthenticated,
		})
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(userKey, user)
	c.Next()
}

// currentUser returns the user stored by requireUser.
func currentUser(c *gin.Context) *auth.User {
	user, _ := c.MustGet(userKey).(*auth.User)
	return user
}

// requestMiddleware logs and measures every request.
func requestMiddleware(logger *slog.Logger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if observer != nil {
			observer.ObserveHTTP(route, c.Request.Method, status, elapsed)
		}

		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

const (
	corsMethods = "GET, POST, PUT, OPTIONS"
	corsHeaders = "Authorization, Content-Type, Accept, Origin"
)

// corsMiddleware allows browser requests from origins matching one of the
// glob patterns. With no patterns CORS headers are never sent.
func corsMiddleware(patterns []string) (gin.HandlerFunc, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, oops.Code("HTTPAPI_INVALID_CORS_ORIGIN").With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}

	allowed := func(origin string) bool {
		for _, g := range globs {
			if g.Match(origin) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !allowed(origin) {
			if c.Request.Method == http.MethodOptions && origin != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", "43200")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}, nil
}
