// Package store persists the site content document and the message inbox.
//
// Each document is a single JSON row in SQLite that is rewritten in full on
// every mutation inside one transaction, so a failed write never leaves a
// partially written record behind.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Document names.
const (
	ContentDocument  = "content"
	MessagesDocument = "messages"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know uses ? bindvars.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps the SQLite database holding the documents.
type DB struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a document write commits; busy_timeout
	// makes a second writer wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	d := &DB{db: db}
	if err := d.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// SQL exposes the connection for components that keep their own tables.
func (d *DB) SQL() *sqlx.DB {
	return d.db
}

func (d *DB) ensureSchema() error {
	_, err := d.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`)
	return err
}

// Load decodes the named document into v. It returns sql.ErrNoRows when the
// document does not exist.
func (d *DB) Load(ctx context.Context, name string, v any) error {
	var body string
	if err := d.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE name = ?`, name); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Save replaces the named document with v in a single transaction.
func (d *DB) Save(ctx context.Context, name string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body), time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
