// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the identity state of the client.
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/tidings/internal/model"
)

// fakeProfile is a ProfileFetcher returning a canned result.
type fakeProfile struct {
	user model.User
	err  error
}

func (f fakeProfile) Me(context.Context) (model.User, error) {
	return f.user, f.err
}

// fakeAuth is an Authenticator returning a canned result.
type fakeAuth struct {
	sess model.Session
	err  error
}

func (f fakeAuth) Login(context.Context, string, string) (model.Session, error) {
	return f.sess, f.err
}

func (f fakeAuth) Register(context.Context, string, string, string) (model.Session, error) {
	return f.sess, f.err
}

func tokenFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "token")
}

func TestRestore_NoPersistedToken(t *testing.T) {
	s := NewStore(tokenFile(t), nil)

	err := s.Restore(context.Background(), fakeProfile{})
	require.ErrorIs(t, err, ErrNoSession)
	assert.False(t, s.Ready())
	assert.Empty(t, s.Token())
}

func TestRestore_Success(t *testing.T) {
	path := tokenFile(t)
	require.NoError(t, os.WriteFile(path, []byte("tok-123\n"), 0o600))

	s := NewStore(path, nil)
	err := s.Restore(context.Background(), fakeProfile{user: model.User{ID: "u1", Username: "alice"}})
	require.NoError(t, err)

	assert.True(t, s.Ready())
	assert.Equal(t, "tok-123", s.Token())
	assert.Equal(t, "alice", s.User().Username)
}

func TestRestore_AuthRejectedClearsToken(t *testing.T) {
	path := tokenFile(t)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	s := NewStore(path, nil)
	rejected := errors.New("unauthenticated")
	err := s.Restore(context.Background(), fakeProfile{err: rejected})
	require.ErrorIs(t, err, rejected)

	assert.False(t, s.Ready())
	assert.Empty(t, s.Token())
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "token file should be removed")
}

func TestLogin_AdoptsAndPersists(t *testing.T) {
	path := tokenFile(t)
	s := NewStore(path, nil)

	auth := fakeAuth{sess: model.Session{Token: "tok-9", User: model.User{ID: "u1", Username: "alice"}}}
	require.NoError(t, s.Login(context.Background(), auth, "alice", "pw"))

	assert.True(t, s.Ready())
	assert.Equal(t, "tok-9", s.Token())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", string(data))
}

func TestLogin_FailureLeavesSessionUnchanged(t *testing.T) {
	s := NewStore(tokenFile(t), nil)

	err := s.Login(context.Background(), fakeAuth{err: errors.New("bad credentials")}, "alice", "nope")
	require.Error(t, err)
	assert.False(t, s.Ready())
	assert.Empty(t, s.Token())
}

func TestLogout_Idempotent(t *testing.T) {
	path := tokenFile(t)
	s := NewStore(path, nil)
	require.NoError(t, s.Login(context.Background(), fakeAuth{sess: model.Session{Token: "t"}}, "a", "b"))

	s.Logout()
	s.Logout() // second call must be a no-op, not a panic or error

	assert.False(t, s.Ready())
	assert.Empty(t, s.Token())
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestSubscribe_NotifiedOnChange(t *testing.T) {
	s := NewStore(tokenFile(t), nil)

	var seen []string
	s.Subscribe(func(token string) { seen = append(seen, token) })

	require.NoError(t, s.Login(context.Background(), fakeAuth{sess: model.Session{Token: "t1"}}, "a", "b"))
	s.Logout()
	s.Logout() // no change, no notification

	assert.Equal(t, []string{"t1", ""}, seen)
}

func TestSubscribe_RestorePendingThenReady(t *testing.T) {
	path := tokenFile(t)
	require.NoError(t, os.WriteFile(path, []byte("tok"), 0o600))

	s := NewStore(path, nil)
	var count int
	s.Subscribe(func(string) { count++ })

	require.NoError(t, s.Restore(context.Background(), fakeProfile{user: model.User{ID: "u1"}}))

	// Adopting the pending token fires once; confirming the same token with
	// the resolved user does not fire again.
	assert.Equal(t, 1, count)
}
