// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package authtest provides in-memory collaborators for auth tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/onlinecinema/accounts/internal/auth"
)

// FakeClock is a Clock whose time only moves when told to.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock reading t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Users is a UserRepository backed by a map.
type Users struct {
	mu    sync.Mutex
	byID  map[ulid.ULID]auth.User
	email map[string]ulid.ULID
}

// NewUsers creates an empty Users repository.
func NewUsers() *Users {
	return &Users{
		byID:  make(map[ulid.ULID]auth.User),
		email: make(map[string]ulid.ULID),
	}
}

// Create implements auth.UserRepository.
func (r *Users) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := auth.NormalizeEmail(user.Email)
	if _, ok := r.email[key]; ok {
		return auth.ErrConflict
	}
	r.byID[user.ID] = *user
	r.email[key] = user.ID
	return nil
}

// GetByID implements auth.UserRepository.
func (r *Users) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

// GetByEmail implements auth.UserRepository.
func (r *Users) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.email[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

// SetActive implements auth.UserRepository.
func (r *Users) SetActive(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.IsActive = true
	r.byID[id] = u
	return nil
}

// UpdatePassword implements auth.UserRepository.
func (r *Users) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.byID[id] = u
	return nil
}

// Groups is a GroupRepository backed by a map.
type Groups struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]auth.Group
}

// NewGroups creates a Groups repository holding names.
func NewGroups(names ...string) *Groups {
	g := &Groups{byName: make(map[string]auth.Group)}
	for _, name := range names {
		g.nextID++
		g.byName[name] = auth.Group{ID: g.nextID, Name: name}
	}
	return g
}

// GetByName implements auth.GroupRepository.
func (r *Groups) GetByName(_ context.Context, name string) (*auth.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byName[name]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &g, nil
}

// Ensure implements auth.GroupRepository.
func (r *Groups) Ensure(_ context.Context, name string) (*auth.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.byName[name]; ok {
		return &g, nil
	}
	r.nextID++
	g := auth.Group{ID: r.nextID, Name: name}
	r.byName[name] = g
	return &g, nil
}

// Tokens is a TokenRepository backed by a map. ConsumeByHash holds the lock
// for the whole delete-and-return, matching the single-statement semantics
// of the postgres implementation.
type Tokens struct {
	mu     sync.Mutex
	byHash map[string]auth.OpaqueToken
}

// NewTokens creates an empty Tokens repository.
func NewTokens() *Tokens {
	return &Tokens{byHash: make(map[string]auth.OpaqueToken)}
}

func tokenKey(kind auth.TokenKind, hash string) string {
	return string(kind) + ":" + hash
}

// Create implements auth.TokenRepository.
func (r *Tokens) Create(_ context.Context, token *auth.OpaqueToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey(token.Kind, token.TokenHash)
	if _, ok := r.byHash[key]; ok {
		return auth.ErrConflict
	}
	r.byHash[key] = *token
	return nil
}

// GetByHash implements auth.TokenRepository.
func (r *Tokens) GetByHash(_ context.Context, kind auth.TokenKind, tokenHash string) (*auth.OpaqueToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenKey(kind, tokenHash)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &t, nil
}

// ConsumeByHash implements auth.TokenRepository.
func (r *Tokens) ConsumeByHash(_ context.Context, kind auth.TokenKind, tokenHash string, now time.Time) (*auth.OpaqueToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey(kind, tokenHash)
	t, ok := r.byHash[key]
	if !ok || t.IsExpiredAt(now) {
		return nil, auth.ErrNotFound
	}
	delete(r.byHash, key)
	return &t, nil
}

// DeleteByHash implements auth.TokenRepository.
func (r *Tokens) DeleteByHash(_ context.Context, kind auth.TokenKind, tokenHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey(kind, tokenHash)
	if _, ok := r.byHash[key]; !ok {
		return 0, nil
	}
	delete(r.byHash, key)
	return 1, nil
}

// DeleteByUser implements auth.TokenRepository.
func (r *Tokens) DeleteByUser(_ context.Context, kind auth.TokenKind, userID ulid.ULID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, t := range r.byHash {
		if t.Kind == kind && t.UserID == userID {
			delete(r.byHash, key)
			n++
		}
	}
	return n, nil
}

// DeleteExpired implements auth.TokenRepository.
func (r *Tokens) DeleteExpired(_ context.Context, kind auth.TokenKind, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, t := range r.byHash {
		if t.Kind == kind && t.IsExpiredAt(now) {
			delete(r.byHash, key)
			n++
		}
	}
	return n, nil
}

// Put stores a token directly, bypassing OpaqueTokenStore.
func (r *Tokens) Put(token auth.OpaqueToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[tokenKey(token.Kind, token.TokenHash)] = token
}

// Len returns the number of stored tokens of kind.
func (r *Tokens) Len(kind auth.TokenKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, t := range r.byHash {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether a token with hash is stored.
func (r *Tokens) Has(kind auth.TokenKind, tokenHash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byHash[tokenKey(kind, tokenHash)]
	return ok
}

// Message is one delivery recorded by Notifier.
type Message struct {
	Address string
	Purpose auth.NotificationPurpose
	Token   string
}

// Notifier records every message instead of sending it. Err, when set, is
// returned from every Notify call after recording.
type Notifier struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// Notify implements auth.Notifier.
func (n *Notifier) Notify(_ context.Context, address string, purpose auth.NotificationPurpose, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, Message{Address: address, Purpose: purpose, Token: token})
	return n.Err
}

// Messages returns a copy of the recorded messages.
func (n *Notifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.messages))
	copy(out, n.messages)
	return out
}

// Last returns the most recent message for purpose.
func (n *Notifier) Last(purpose auth.NotificationPurpose) (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].Purpose == purpose {
			return n.messages[i], true
		}
	}
	return Message{}, false
}

// Verify interfaces are satisfied.
var (
	_ auth.Clock           = (*FakeClock)(nil)
	_ auth.UserRepository  = (*Users)(nil)
	_ auth.GroupRepository = (*Groups)(nil)
	_ auth.TokenRepository = (*Tokens)(nil)
	_ auth.Notifier        = (*Notifier)(nil)
)
