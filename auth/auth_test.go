package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestSessions(t *testing.T) *SQLiteSessions {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewSQLiteSessions(db.SQL())
	require.NoError(t, err)
	return s
}

func newTestAuth(t *testing.T) (*Auth, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	sessions := newTestSessions(t)
	sessions.now = c.now
	a := New(PlainVerifier{Username: "admin", Password: "s3cret"}, sessions, time.Hour, nil)
	a.now = c.now
	return a, c
}

func TestAuthRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuth(t)

	token, err := a.Authenticate(ctx, "admin", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, SessionState{Authenticated: true, User: "admin"}, a.Check(ctx, token))
	assert.NoError(t, a.RequireAuthenticated(ctx, token))

	require.NoError(t, a.Destroy(ctx, token))
	assert.Equal(t, SessionState{}, a.Check(ctx, token))
	assert.ErrorIs(t, a.RequireAuthenticated(ctx, token), ErrUnauthorized)

	// Destroying again is still fine.
	assert.NoError(t, a.Destroy(ctx, token))
	assert.NoError(t, a.Destroy(ctx, ""))
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuth(t)

	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret"},
		{"", ""},
		{"admin", "s3cret "},
	} {
		_, err := a.Authenticate(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%q/%q", tc.user, tc.pass)
	}
}

func TestCheckUnknownToken(t *testing.T) {
	a, _ := newTestAuth(t)
	assert.Equal(t, SessionState{}, a.Check(context.Background(), "no-such-token"))
	assert.Equal(t, SessionState{}, a.Check(context.Background(), ""))
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	a, c := newTestAuth(t)

	token, err := a.Authenticate(ctx, "admin", "s3cret")
	require.NoError(t, err)

	c.t = c.t.Add(59 * time.Minute)
	assert.True(t, a.Check(ctx, token).Authenticated)

	c.t = c.t.Add(time.Minute)
	assert.False(t, a.Check(ctx, token).Authenticated)
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestSessions(t)
	s.now = c.now

	require.NoError(t, s.Create(ctx, Session{Token: "old", Username: "admin", CreatedAt: c.t, ExpiresAt: c.t.Add(time.Minute)}))
	require.NoError(t, s.Create(ctx, Session{Token: "new", Username: "admin", CreatedAt: c.t, ExpiresAt: c.t.Add(time.Hour)}))

	c.t = c.t.Add(2 * time.Minute)
	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	got, err := s.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.True(t, got.ExpiresAt.Equal(c.t.Add(58*time.Minute)))
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	v := BcryptVerifier{Username: "admin", Hash: []byte(hash)}

	assert.True(t, v.Verify("admin", "hunter2"))
	assert.False(t, v.Verify("admin", "hunter3"))
	assert.False(t, v.Verify("other", "hunter2"))
}

func TestRedisSessions(t *testing.T) {
	url := os.Getenv("FOLIO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FOLIO_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisSessions(url, "folio-test:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	now := time.Now().UTC()
	sess := Session{Token: "tok-redis", Username: "admin", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.Create(ctx, sess))
	defer s.Delete(ctx, sess.Token)

	got, err := s.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	require.NoError(t, s.Delete(ctx, sess.Token))
	_, err = s.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
