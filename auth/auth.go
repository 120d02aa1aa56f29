// Package auth authenticates the single site operator and tracks the
// server-side sessions that back client tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned when a login does not match the operator.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthorized is returned by RequireAuthenticated for a missing,
	// expired or unknown token.
	ErrUnauthorized = errors.New("auth: unauthorized")
)

// SessionState is what Check reports about a token.
type SessionState struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

// Auth issues, validates and destroys operator sessions.
type Auth struct {
	verifier CredentialVerifier
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// New returns an Auth issuing sessions valid for ttl after login.
func New(verifier CredentialVerifier, sessions SessionStore, ttl time.Duration, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{
		verifier: verifier,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Authenticate verifies the credentials and starts a new session.
func (a *Auth) Authenticate(ctx context.Context, username, password string) (string, error) {
	if !a.verifier.Verify(username, password) {
		return "", ErrInvalidCredentials
	}
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	now := a.now().UTC()
	if err := a.sessions.Create(ctx, Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}); err != nil {
		return "", fmt.Errorf("auth: create session: %w", err)
	}
	return token, nil
}

// Check reports the state of token. It never fails: lookup errors are
// logged and treated as unauthenticated.
func (a *Auth) Check(ctx context.Context, token string) SessionState {
	if token == "" {
		return SessionState{}
	}
	sess, err := a.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			a.log.Error("session lookup failed", zap.Error(err))
		}
		return SessionState{}
	}
	if !a.now().Before(sess.ExpiresAt) {
		return SessionState{}
	}
	return SessionState{Authenticated: true, User: sess.Username}
}

// Destroy ends the session behind token. Unknown tokens are not an error.
func (a *Auth) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// RequireAuthenticated guards admin-only operations.
func (a *Auth) RequireAuthenticated(ctx context.Context, token string) error {
	if !a.Check(ctx, token).Authenticated {
		return ErrUnauthorized
	}
	return nil
}

// StartCleanupScheduler purges expired sessions every interval. Returns a
// stop function.
func (a *Auth) StartCleanupScheduler(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := a.sessions.Purge(context.Background())
				if err != nil {
					a.log.Error("session cleanup failed", zap.Error(err))
					continue
				}
				if n > 0 {
					a.log.Debug("expired sessions purged", zap.Int64("count", n))
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
