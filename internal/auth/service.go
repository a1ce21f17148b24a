// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/onlinecinema/accounts/pkg/errutil"
)

var tracer = otel.Tracer("accounts/auth")

// Flow names used for spans and metrics.
const (
	FlowRegister             = "register"
	FlowVerifyEmail          = "verify_email"
	FlowLogin                = "login"
	FlowRefresh              = "refresh"
	FlowLogout               = "logout"
	FlowRequestPasswordReset = "request_password_reset"
	FlowResetPassword        = "reset_password"
	FlowChangePassword       = "change_password"
	FlowCurrentUser          = "current_user"
)

// Default lifetimes applied when a ServiceConfig field is zero.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultVerifyTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultResetTokenTTL   = time.Hour
	DefaultNotifyTimeout   = 10 * time.Second
)

// TokenTypeBearer is the token_type reported alongside a token pair.
const TokenTypeBearer = "bearer"

// dummyPasswordHash is verified against when a user doesn't exist so that
// login takes the same time whether or not the email is registered.
// It is NOT a real credential and never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// Observer receives flow outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	// FlowCompleted is called once per flow. code is "" on success.
	FlowCompleted(flow, code string, environmentFault bool)

	// NotificationDelivered is called after every notifier attempt.
	NotificationDelivered(purpose NotificationPurpose, err error)
}

type noopObserver struct{}

func (noopObserver) FlowCompleted(string, string, bool) {}

func (noopObserver) NotificationDelivered(NotificationPurpose, error) {}

// ServiceConfig holds the immutable lifetimes and bootstrap settings of a Service.
type ServiceConfig struct {
	AccessTokenTTL  time.Duration
	VerifyTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	DefaultGroup    string
	StoreTimeout    time.Duration
	NotifyTimeout   time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.VerifyTokenTTL <= 0 {
		c.VerifyTokenTTL = DefaultVerifyTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = DefaultResetTokenTTL
	}
	if c.DefaultGroup == "" {
		c.DefaultGroup = DefaultGroup
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = DefaultNotifyTimeout
	}
	return c
}

// ServiceDeps are the collaborators of a Service. Clock, Logger and Observer
// are optional.
type ServiceDeps struct {
	Users    UserRepository
	Groups   GroupRepository
	Tokens   *OpaqueTokenStore
	Codec    *TokenCodec
	Hasher   PasswordHasher
	Notifier Notifier
	Clock    Clock
	Logger   *slog.Logger
	Observer Observer
}

// Service runs every credential and token flow.
type Service struct {
	users    UserRepository
	groups   GroupRepository
	tokens   *OpaqueTokenStore
	codec    *TokenCodec
	hasher   PasswordHasher
	notifier Notifier
	clock    Clock
	logger   *slog.Logger
	observer Observer
	cfg      ServiceConfig
}

// NewService creates a Service.
func NewService(deps ServiceDeps, cfg ServiceConfig) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	case deps.Groups == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("group repository is required")
	case deps.Tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token store is required")
	case deps.Codec == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token codec is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case deps.Notifier == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("notifier is required")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}

	return &Service{
		users:    deps.Users,
		groups:   deps.Groups,
		tokens:   deps.Tokens,
		codec:    deps.Codec,
		hasher:   deps.Hasher,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger,
		observer: deps.Observer,
		cfg:      cfg.withDefaults(),
	}, nil
}

// Register creates an inactive user in the default group and mails an
// activation link. The user is durable before the notification is attempted.
func (s *Service) Register(ctx context.Context, email, password string) (_ *User, err error) {
	ctx, finish := s.begin(ctx, FlowRegister)
	defer func() { finish(err) }()

	email = NormalizeEmail(email)

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	_, err = s.users.GetByEmail(storeCtx, email)
	cancel()
	switch {
	case err == nil:
		return nil, duplicateEmail()
	case !errors.Is(err, ErrNotFound):
		return nil, storageError("get user by email", err)
	}

	storeCtx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
	group, err := s.groups.GetByName(storeCtx, s.cfg.DefaultGroup)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeMissingDefaultGroup).
				With("group", s.cfg.DefaultGroup).
				Errorf("default group %q not found; run the seed command", s.cfg.DefaultGroup)
		}
		return nil, storageError("get default group", err)
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := NewUser(email, passwordHash, group, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// Minted before the commit so nothing is persisted if signing fails.
	activation, err := s.codec.Issue(map[string]string{
		ClaimSubject: user.Email,
		ClaimEmail:   user.Email,
		ClaimPurpose: PurposeEmailVerification,
	}, s.cfg.VerifyTokenTTL)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
	err = s.users.Create(storeCtx, user)
	cancel()
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, duplicateEmail()
		}
		return nil, storageError("create user", err)
	}

	s.notify(ctx, user.Email, NotifyActivation, activation)
	return user, nil
}

// VerifyEmail activates the user named by an activation token. Activating an
// already active user succeeds.
func (s *Service) VerifyEmail(ctx context.Context, token string) (err error) {
	ctx, finish := s.begin(ctx, FlowVerifyEmail)
	defer func() { finish(err) }()

	claims, err := s.codec.Verify(token)
	if err != nil {
		return err
	}
	if claims[ClaimPurpose] != PurposeEmailVerification {
		s.logger.DebugContext(ctx, "token rejected", "reason", "wrong purpose", "purpose", claims[ClaimPurpose])
		return invalidOrExpiredToken()
	}

	email := claims[ClaimEmail]
	if email == "" {
		return oops.Code(CodeMalformedToken).Errorf("token does not contain an email address")
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsActive {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.users.SetActive(storeCtx, user.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return userNotFound()
		}
		return storageError("activate user", err)
	}
	return nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords produce the same error after the same amount of work.
func (s *Service) Login(ctx context.Context, email, password string) (_ *TokenPair, err error) {
	ctx, finish := s.begin(ctx, FlowLogin)
	defer func() { finish(err) }()

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	user, lookupErr := s.users.GetByEmail(storeCtx, NormalizeEmail(email))
	cancel()

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, storageError("get user by email", lookupErr)
	}

	// Always verify, even against the dummy hash.
	valid := s.hasher.Verify(password, targetHash)
	if lookupErr != nil || !valid {
		return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	if !user.IsActive {
		return nil, oops.Code(CodeAccountNotActivated).
			With("user_id", user.ID.String()).
			Errorf("account not activated")
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token. The presented token is consumed
// atomically before the new pair is issued, so it can succeed at most once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	ctx, finish := s.begin(ctx, FlowRefresh)
	defer func() { finish(err) }()

	record, err := s.tokens.Consume(ctx, KindRefresh, refreshToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidOrExpiredToken()
		}
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	user, err := s.users.GetByID(storeCtx, record.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidOrExpiredToken()
		}
		return nil, storageError("get user by id", err)
	}

	return s.issuePair(ctx, user)
}

// Logout revokes a refresh token. It succeeds whether or not the token was
// still valid.
func (s *Service) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, finish := s.begin(ctx, FlowLogout)
	defer func() { finish(err) }()

	return s.tokens.Delete(ctx, KindRefresh, refreshToken)
}

// RequestPasswordReset issues a single-use reset token to an active user
// and mails it.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (err error) {
	ctx, finish := s.begin(ctx, FlowRequestPasswordReset)
	defer func() { finish(err) }()

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return oops.Code(CodeAccountNotActivated).
			With("user_id", user.ID.String()).
			Errorf("account not activated")
	}

	token, err := s.tokens.Create(ctx, KindPasswordReset, user.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	s.notify(ctx, user.Email, NotifyPasswordReset, token)
	return nil
}

// ResetPassword sets a new password using a reset token, then revokes every
// reset token of that user. The password is untouched if the token is not
// valid.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	ctx, finish := s.begin(ctx, FlowResetPassword)
	defer func() { finish(err) }()

	record, err := s.tokens.Verify(ctx, KindPasswordReset, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidOrExpiredToken()
		}
		return err
	}

	user, err := s.userByID(ctx, record.UserID)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	// The password is already changed; a failed revocation is logged only.
	if err := s.tokens.Delete(ctx, KindPasswordReset, token); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "revoke reset token failed", err)
	}
	if _, err := s.tokens.DeleteForUser(ctx, KindPasswordReset, user.ID); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "revoke sibling reset tokens failed", err)
	}
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one. Existing refresh tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, userID ulid.ULID, oldPassword, newPassword string) (err error) {
	ctx, finish := s.begin(ctx, FlowChangePassword)
	defer func() { finish(err) }()

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return oops.Code(CodeIncorrectPassword).
			With("user_id", user.ID.String()).
			Errorf("incorrect password")
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

// CurrentUser resolves the user behind an access token. Invalid, expired or
// wrong-purpose tokens and unknown subjects all yield Unauthenticated.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (_ *User, err error) {
	ctx, finish := s.begin(ctx, FlowCurrentUser)
	defer func() { finish(err) }()

	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		return nil, unauthenticated()
	}
	if claims[ClaimPurpose] != PurposeAccess {
		s.logger.DebugContext(ctx, "token rejected", "reason", "wrong purpose", "purpose", claims[ClaimPurpose])
		return nil, unauthenticated()
	}

	id, err := ulid.Parse(claims[ClaimSubject])
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "reason", "malformed subject")
		return nil, unauthenticated()
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	user, err := s.users.GetByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthenticated()
		}
		return nil, storageError("get user by id", err)
	}
	return user, nil
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.codec.Issue(map[string]string{
		ClaimSubject: user.ID.String(),
		ClaimPurpose: PurposeAccess,
		ClaimGroup:   user.GroupName,
	}, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Create(ctx, KindRefresh, user.ID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

func (s *Service) setPassword(ctx context.Context, userID ulid.ULID, password string) error {
	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.users.UpdatePassword(storeCtx, userID, passwordHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return userNotFound()
		}
		return storageError("update password", err)
	}
	return nil
}

// upgradeHash re-hashes a legacy password after a successful login.
// Failure leaves the old hash in place and never fails the login.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID.String(), "error", err)
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.users.UpdatePassword(storeCtx, user.ID, newHash); err != nil {
		s.logger.WarnContext(ctx, "password rehash not stored", "user_id", user.ID.String(), "error", err)
		return
	}
	user.PasswordHash = newHash
}

func (s *Service) hashPassword(password string) (string, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			return "", err
		}
		return "", oops.Code(CodeHashFailed).Wrap(err)
	}
	return passwordHash, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*User, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.users.GetByEmail(storeCtx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, storageError("get user by email", err)
	}
	return user, nil
}

func (s *Service) userByID(ctx context.Context, id ulid.ULID) (*User, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.users.GetByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, storageError("get user by id", err)
	}
	return user, nil
}

// notify runs after the commit. It detaches from the request's cancellation
// and applies its own timeout; errors are logged and observed, never returned.
func (s *Service) notify(ctx context.Context, address string, purpose NotificationPurpose, token string) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()

	err := s.notifier.Notify(notifyCtx, address, purpose, token)
	s.observer.NotificationDelivered(purpose, err)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "notification failed",
			oops.With("purpose", string(purpose)).Wrap(err))
	}
}

// begin starts the span for a flow and returns the function that ends it.
func (s *Service) begin(ctx context.Context, flow string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "auth."+flow, trace.WithAttributes(attribute.String("auth.flow", flow)))

	return ctx, func(err error) {
		code := ErrorCode(err)
		fault := err != nil && IsEnvironmentFault(err)
		if err != nil && code == "" {
			code, fault = CodeStorage, true
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("auth.error_code", code))
			if fault {
				errutil.LogErrorContext(ctx, s.logger, flow+" failed", err)
			} else {
				s.logger.DebugContext(ctx, flow+" rejected", "code", code)
			}
		}
		s.observer.FlowCompleted(flow, code, fault)
		span.End()
	}
}

func duplicateEmail() error {
	return oops.Code(CodeDuplicateEmail).Errorf("email already registered")
}

func userNotFound() error {
	return oops.Code(CodeUserNotFound).Errorf("user not found")
}
