// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package mail delivers activation and password-reset links.
package mail

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/internal/auth"
)

// Link paths appended to the frontend URL.
const (
	ActivationPath    = "/api/v1/auth/verify"
	PasswordResetPath = "/api/v1/auth/reset-password"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
	Link    string
}

// Compose renders the message for purpose carrying token.
func Compose(frontendURL string, purpose auth.NotificationPurpose, token string) (Message, error) {
	base := strings.TrimRight(frontendURL, "/")
	link := func(path string) string {
		return base + path + "?" + url.Values{"token": {token}}.Encode()
	}

	switch purpose {
	case auth.NotifyActivation:
		l := link(ActivationPath)
		return Message{
			Subject: "Account Activation",
			Body:    "Please click the following link to activate your account:\n\n" + l + "\n",
			Link:    l,
		}, nil
	case auth.NotifyPasswordReset:
		l := link(PasswordResetPath)
		return Message{
			Subject: "Password Reset Request",
			Body:    "To reset your password, click the following link:\n\n" + l + "\n",
			Link:    l,
		}, nil
	default:
		return Message{}, oops.Code("MAIL_UNKNOWN_PURPOSE").
			With("purpose", string(purpose)).
			Errorf("unknown notification purpose %q", purpose)
	}
}

// LogNotifier writes links to the log instead of sending mail. Used when
// no SMTP host is configured.
type LogNotifier struct {
	frontendURL string
	logger      *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(frontendURL string, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{frontendURL: frontendURL, logger: logger}
}

// Notify implements auth.Notifier.
func (n *LogNotifier) Notify(ctx context.Context, address string, purpose auth.NotificationPurpose, token string) error {
	msg, err := Compose(n.frontendURL, purpose, token)
	if err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "notification not sent, smtp disabled",
		"address", address,
		"purpose", string(purpose),
		"link", msg.Link,
	)
	return nil
}

var _ auth.Notifier = (*LogNotifier)(nil)
