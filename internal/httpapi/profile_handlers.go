// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onlinecinema/accounts/internal/profile"
)

type profileResponse struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Group       string  `json:"group"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Avatar      *string `json:"avatar"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Info        *string `json:"info"`
}

func newProfileResponse(p *profile.Profile) profileResponse {
	resp := profileResponse{
		ID:        p.ID,
		UserID:    p.UserID.String(),
		Email:     p.Email,
		Group:     p.Group,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Avatar:    p.Avatar,
		Info:      p.Info,
	}
	if p.Gender != nil {
		g := string(*p.Gender)
		resp.Gender = &g
	}
	if p.DateOfBirth != nil {
		d := p.DateOfBirth.Format(profile.DateLayout)
		resp.DateOfBirth = &d
	}
	return resp
}

// profileUpdateRequest is a partial update. Absent and null fields are left
// unchanged.
type profileUpdateRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Avatar      *string `json:"avatar" binding:"omitempty,max=255"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Info        *string `json:"info"`
}

func (r profileUpdateRequest) patch() (profile.Patch, error) {
	patch := profile.Patch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Avatar:    r.Avatar,
		Info:      r.Info,
	}
	if r.Gender != nil {
		g := profile.Gender(*r.Gender)
		patch.Gender = &g
	}
	if r.DateOfBirth != nil {
		d, err := time.Parse(profile.DateLayout, *r.DateOfBirth)
		if err != nil {
			return profile.Patch{}, err
		}
		patch.DateOfBirth = &d
	}
	return patch, nil
}

func (h *handler) getProfile(c *gin.Context) {
	user := currentUser(c)

	p, err := h.profiles.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(p))
}

func (h *handler) updateProfile(c *gin.Context) {
	var req profileUpdateRequest
	if !h.bind(c, &req) {
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.invalidRequest(c, "date_of_birth must use the YYYY-MM-DD format")
		return
	}

	user := currentUser(c)
	p, err := h.profiles.Update(c.Request.Context(), user.ID, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(p))
}
