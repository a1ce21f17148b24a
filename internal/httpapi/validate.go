// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// CheckPassword enforces the password complexity rule: at least
// MinPasswordLength characters with an upper case letter, a lower case
// letter, a digit and a special character.
func CheckPassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must contain at least %d characters", MinPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(missing, ", "))
	}
	return nil
}

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators adds the "password" tag to gin's validator.
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = oops.Code("HTTPAPI_VALIDATOR_UNAVAILABLE").Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		validatorsErr = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return CheckPassword(fl.Field().String()) == nil
		})
	})
	return validatorsErr
}

// bindingDetail turns a bind error into a client message.
func bindingDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "request body must be valid JSON"
	}

	fe := verrs[0]
	field := jsonFieldName(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "password":
		if msg := CheckPassword(fmt.Sprint(fe.Value())); msg != nil {
			return field + ": " + msg.Error()
		}
		return field + " is not a valid password"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

var fieldNames = map[string]string{
	"Email":        "email",
	"Password":     "password",
	"RefreshToken": "refresh_token",
	"Token":        "token",
	"NewPassword":  "new_password",
	"OldPassword":  "old_password",
	"FirstName":    "first_name",
	"LastName":     "last_name",
	"Avatar":       "avatar",
	"Info":         "info",
}

func jsonFieldName(fe validator.FieldError) string {
	if name, ok := fieldNames[fe.StructField()]; ok {
		return name
	}
	return strings.ToLower(fe.Field())
}
