// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import "context"

// NotificationPurpose selects the message a Notifier sends.
type NotificationPurpose string

// Notification purposes.
const (
	NotifyActivation    NotificationPurpose = "activation"
	NotifyPasswordReset NotificationPurpose = "password_reset"
)

// Notifier delivers a token-bearing message to an address. The service only
// calls it after the triggering state change has been committed, and never
// lets a delivery failure reach its own caller.
type Notifier interface {
	Notify(ctx context.Context, address string, purpose NotificationPurpose, token string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, address string, purpose NotificationPurpose, token string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, address string, purpose NotificationPurpose, token string) error {
	return f(ctx, address, purpose, token)
}
