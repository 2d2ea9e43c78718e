// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the identity state of the client: the bearer token and
// the current user.
//
// The store is the only component that mutates the token. Everything that
// needs to react to credential changes (the REST client reads the token
// through a provider func, the push channel resubscribes on change) observes
// the store instead of being called directly, so the store depends on neither.
package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/morganforge/tidings/internal/model"
	"github.com/morganforge/tidings/internal/util"
)

// ErrNoSession indicates no persisted token exists to restore.
var ErrNoSession = errors.New("no persisted session")

// Authenticator is the external auth collaborator (the REST client).
type Authenticator interface {
	Login(ctx context.Context, usernameOrEmail, password string) (model.Session, error)
	Register(ctx context.Context, username, email, password string) (model.Session, error)
}

// ProfileFetcher resolves the current user for a restored token.
type ProfileFetcher interface {
	Me(ctx context.Context) (model.User, error)
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds the session token and current user.
//
// Lifecycle: populated by Login/Register success or Restore at startup,
// cleared by Logout or an unauthenticated response from any call.
type Store struct {
	mu sync.Mutex

	token string
	user  model.User
	ready bool

	// tokenFile is the single well-known persistence location. Absence of
	// the file means unauthenticated at startup.
	tokenFile string

	subs []func(token string)

	log *zap.Logger
}

// NewStore creates a session store persisting its token at tokenFile.
func NewStore(tokenFile string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{tokenFile: tokenFile, log: log}
}

// Token returns the current bearer token, empty when unauthenticated.
// Safe to pass as a provider func to the REST client.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the current user. Only meaningful when Ready reports true.
func (s *Store) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Ready reports whether the session is authenticated with a resolved user.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Subscribe registers fn to be called with the new token value after every
// credential change, including the empty token on logout. Callbacks run
// synchronously outside the store's lock, in registration order.
func (s *Store) Subscribe(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Restore adopts a previously persisted token, if any, and resolves the
// current user through the profile collaborator. On an auth rejection the
// token is cleared and the caller sees the error; the store stays
// unauthenticated. Returns ErrNoSession when no token is persisted.
func (s *Store) Restore(ctx context.Context, profile ProfileFetcher) error {
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoSession
		}
		return err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return ErrNoSession
	}

	// Adopt as pending so the profile fetch itself is authenticated.
	s.adopt(token, model.User{}, false)

	user, err := profile.Me(ctx)
	if err != nil {
		s.log.Warn("session restore rejected", zap.Error(err))
		s.clear(true)
		return err
	}

	s.adopt(token, user, true)
	s.log.Info("session restored", zap.String("user_id", user.ID))
	return nil
}

// Login delegates to the auth collaborator and, on success, persists and
// adopts the returned credentials. On failure the session is unchanged and
// the typed error is returned for the form to display.
func (s *Store) Login(ctx context.Context, auth Authenticator, usernameOrEmail, password string) error {
	sess, err := auth.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return err
	}
	return s.accept(sess)
}

// Register delegates to the auth collaborator and adopts the returned
// credentials exactly like Login.
func (s *Store) Register(ctx context.Context, auth Authenticator, username, email, password string) error {
	sess, err := auth.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	return s.accept(sess)
}

// Logout clears the persisted and in-memory credentials. Idempotent and
// callable at any time, including when already unauthenticated.
func (s *Store) Logout() {
	s.clear(true)
}

// Invalidate drops the session after the server rejected the credential
// (a 401 on any authenticated call). Same effect as Logout.
func (s *Store) Invalidate() {
	s.log.Info("session invalidated by server")
	s.clear(true)
}

// =============================================================================
// INTERNALS
// =============================================================================

// accept persists and adopts freshly issued credentials.
func (s *Store) accept(sess model.Session) error {
	if err := util.AtomicWriteFile(s.tokenFile, []byte(sess.Token), 0o600); err != nil {
		// The session is still usable for this run; only persistence failed.
		s.log.Warn("persist token failed", zap.Error(err))
	}
	s.adopt(sess.Token, sess.User, true)
	return nil
}

// adopt installs a token/user pair and notifies subscribers of the change.
func (s *Store) adopt(token string, user model.User, ready bool) {
	s.mu.Lock()
	changed := s.token != token
	s.token = token
	s.user = user
	s.ready = ready
	subs := s.notifySet(changed)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(token)
	}
}

// clear wipes the session. When persisted is true the token file is removed.
func (s *Store) clear(persisted bool) {
	s.mu.Lock()
	changed := s.token != ""
	s.token = ""
	s.user = model.User{}
	s.ready = false
	subs := s.notifySet(changed)
	s.mu.Unlock()

	if persisted {
		if err := os.Remove(s.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("remove token file failed", zap.Error(err))
		}
	}
	for _, fn := range subs {
		fn("")
	}
}

// notifySet returns the subscriber snapshot to invoke, or nil when the token
// did not actually change. Must be called with the lock held.
func (s *Store) notifySet(changed bool) []func(token string) {
	if !changed {
		return nil
	}
	out := make([]func(string), len(s.subs))
	copy(out, s.subs)
	return out
}
