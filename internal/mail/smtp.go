// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package mail

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"

	"github.com/onlinecinema/accounts/internal/auth"
)

// Sender delivers composed messages. *gomail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPConfig configures the SMTP notifier.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	UseTLS      bool
	From        string
	FrontendURL string
	Timeout     time.Duration
}

// SMTPNotifier sends notifications over SMTP.
type SMTPNotifier struct {
	sender      Sender
	from        string
	frontendURL string
	logger      *slog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier. No connection is made until the
// first message; each Notify dials and sends a single message.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender address is required")
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}
	return NewSMTPNotifierWithSender(client, cfg.From, cfg.FrontendURL, logger), nil
}

// NewSMTPNotifierWithSender creates an SMTPNotifier over an existing Sender.
func NewSMTPNotifierWithSender(sender Sender, from, frontendURL string, logger *slog.Logger) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPNotifier{sender: sender, from: from, frontendURL: frontendURL, logger: logger}
}

// Notify implements auth.Notifier.
func (n *SMTPNotifier) Notify(ctx context.Context, address string, purpose auth.NotificationPurpose, token string) error {
	composed, err := Compose(n.frontendURL, purpose, token)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return oops.Code("MAIL_INVALID_ADDRESS").With("from", n.from).Wrap(err)
	}
	if err := msg.To(address); err != nil {
		return oops.Code("MAIL_INVALID_ADDRESS").With("address", address).Wrap(err)
	}
	msg.Subject(composed.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, composed.Body)

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("purpose", string(purpose)).
			Wrap(err)
	}
	n.logger.DebugContext(ctx, "notification sent", "purpose", string(purpose))
	return nil
}

var _ auth.Notifier = (*SMTPNotifier)(nil)
