// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onlinecinema/accounts/internal/auth"
)

type messageResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type passwordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenPairResponse(pair *auth.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}

// An invalid activation link is a bad request; an invalid refresh or reset
// token is an authentication failure.
var verifyOverrides = map[string]int{
	auth.CodeInvalidOrExpiredToken: http.StatusBadRequest,
}

// bind decodes the JSON body into req or writes a 422.
func (h *handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.invalidRequest(c, bindingDetail(err))
		return false
	}
	return true
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{
		Message: fmt.Sprintf("User '%s' registered successfully. Please check your email to activate your account.", user.Email),
	})
}

func (h *handler) verifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.invalidRequest(c, "token is required")
		return
	}

	if err := h.auth.VerifyEmail(c.Request.Context(), token); err != nil {
		h.fail(c, err, verifyOverrides)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Account has been successfully activated."})
}

func (h *handler) login(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenPairResponse(pair))
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenPairResponse(pair))
}

func (h *handler) logout(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Successfully logged out."})
}

func (h *handler) requestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "A password reset link has been sent to your email."})
}

func (h *handler) resetPassword(c *gin.Context) {
	var req passwordResetConfirm
	if !h.bind(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password has been reset successfully."})
}

func (h *handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	user := currentUser(c)
	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully."})
}
