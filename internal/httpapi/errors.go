// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onlinecinema/accounts/internal/auth"
	"github.com/onlinecinema/accounts/internal/profile"
	"github.com/onlinecinema/accounts/pkg/errutil"
)

// CodeValidation marks a request rejected before reaching a service.
const CodeValidation = "VALIDATION_FAILED"

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// errorStatus maps error codes to HTTP statuses. Codes not listed are
// answered with 500.
var errorStatus = map[string]int{
	auth.CodeDuplicateEmail:        http.StatusBadRequest,
	auth.CodeInvalidCredentials:    http.StatusBadRequest,
	auth.CodeMalformedToken:        http.StatusBadRequest,
	auth.CodeIncorrectPassword:     http.StatusBadRequest,
	auth.CodeAccountNotActivated:   http.StatusForbidden,
	auth.CodeInvalidOrExpiredToken: http.StatusUnauthorized,
	auth.CodeUnauthenticated:       http.StatusUnauthorized,
	auth.CodeUserNotFound:          http.StatusNotFound,
	profile.CodeNotFound:           http.StatusNotFound,
	profile.CodeInvalidGender:      http.StatusBadRequest,
	profile.CodeInvalidDate:        http.StatusBadRequest,
}

var errorDetail = map[string]string{
	auth.CodeDuplicateEmail:        "Email already registered",
	auth.CodeInvalidCredentials:    "Invalid credentials",
	auth.CodeMalformedToken:        "Malformed token",
	auth.CodeIncorrectPassword:     "Incorrect current password",
	auth.CodeAccountNotActivated:   "Account not activated. Check your email.",
	auth.CodeInvalidOrExpiredToken: "Invalid or expired token",
	auth.CodeUnauthenticated:       "Not authenticated",
	auth.CodeUserNotFound:          "User not found",
	profile.CodeNotFound:           "Profile not found",
	profile.CodeInvalidGender:      "Gender must be MAN or WOMAN",
	profile.CodeInvalidDate:        "Date of birth cannot be in the future",
}

const internalDetail = "Internal server error"

// fail writes the response for err. overrides replace the default status of
// individual codes for one route.
func (h *handler) fail(c *gin.Context, err error, overrides ...map[string]int) {
	code := auth.ErrorCode(err)

	status, known := errorStatus[code]
	for _, o := range overrides {
		if s, ok := o[code]; ok {
			status, known = s, true
		}
	}
	if !known {
		errutil.LogErrorContext(c.Request.Context(), h.logger, "request failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Detail: internalDetail, Code: "INTERNAL"})
		return
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, errorResponse{Detail: errorDetail[code], Code: code})
}

func (h *handler) invalidRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Detail: detail, Code: CodeValidation})
}
