// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  string
	}{
		{"Pw1!aaaa", ""},
		{"StrongPass123!", ""},
		{"Пароль1!", ""},
		{"Pw1!aaa", "at least 8"},
		{"password1!", "an uppercase letter"},
		{"PASSWORD1!", "a lowercase letter"},
		{"Password!!", "a digit"},
		{"Password12", "a special character"},
		{"password", "an uppercase letter, a digit, a special character"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := CheckPassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
