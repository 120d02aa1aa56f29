package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned by a SessionStore for unknown or expired tokens.
var ErrSessionNotFound = errors.New("auth: session not found")

// Session is the server-side record behind a client token.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore is a TTL-bounded key/value store of sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	// Get returns ErrSessionNotFound once the session has expired.
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	// Purge drops expired sessions and reports how many were removed.
	Purge(ctx context.Context) (int64, error)
}

// SQLiteSessions keeps sessions in the sessions table of the site database.
type SQLiteSessions struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteSessions creates the sessions table if needed.
func NewSQLiteSessions(db *sqlx.DB) (*SQLiteSessions, error) {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`); err != nil {
		return nil, err
	}
	return &SQLiteSessions{db: db, now: time.Now}, nil
}

type sessionRow struct {
	Token     string `db:"token"`
	Username  string `db:"username"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (s *SQLiteSessions) Create(ctx context.Context, sess Session) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO sessions (token, username, created_at, expires_at)
		 VALUES (:token, :username, :created_at, :expires_at)`,
		sessionRow{
			Token:     sess.Token,
			Username:  sess.Username,
			CreatedAt: sess.CreatedAt.UnixNano(),
			ExpiresAt: sess.ExpiresAt.UnixNano(),
		})
	return err
}

func (s *SQLiteSessions) Get(ctx context.Context, token string) (Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT token, username, created_at, expires_at FROM sessions WHERE token = ? AND expires_at > ?`,
		token, s.now().UnixNano())
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     row.Token,
		Username:  row.Username,
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
		ExpiresAt: time.Unix(0, row.ExpiresAt).UTC(),
	}, nil
}

func (s *SQLiteSessions) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *SQLiteSessions) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RedisSessions keeps sessions in Redis and lets key expiry enforce the TTL.
type RedisSessions struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessions connects to the Redis server at url (redis://host:port/db).
func NewRedisSessions(url, prefix string) (*RedisSessions, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisSessions{client: redis.NewClient(opts), prefix: prefix, now: time.Now}, nil
}

func (s *RedisSessions) key(token string) string {
	return s.prefix + "session:" + token
}

func (s *RedisSessions) Create(ctx context.Context, sess Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	body, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.Token), body, ttl).Err()
}

func (s *RedisSessions) Get(ctx context.Context, token string) (Session, error) {
	body, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

// Purge is a no-op: Redis expires keys on its own.
func (s *RedisSessions) Purge(ctx context.Context) (int64, error) {
	return 0, nil
}

// Ping checks the connection.
func (s *RedisSessions) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisSessions) Close() error {
	return s.client.Close()
}
