// Package store is the relational HR store: users, leave credits, leaves and
// the audit trail. All statements are parameterized; the only identifier ever
// interpolated is a profile column name validated against a fixed allow-list.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// DateFormat is the wire format for all leave dates.
const DateFormat = "2006-01-02"

// Leave statuses.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusCancelled = "CANCELLED"
)

// ErrUserNotFound is returned when a username or user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// Store wraps the SQLite database. Writes that touch leave credits for one
// user are serialized by a per-user lock on top of the transaction, so two
// concurrent raise-leave calls cannot both pass the balance check.
type Store struct {
	db    *sql.DB
	locks *userLocks
	now   func() time.Time
}

// Open opens (creating if needed) the HR database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	// SQLite is single-writer; one pooled connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:    db,
		locks: newUserLocks(),
		now:   time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logx.Debug().Str("path", path).Msg("HR store opened")
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		address TEXT DEFAULT '',
		contact_phone TEXT DEFAULT '',
		email TEXT DEFAULT '',
		employment_title TEXT DEFAULT '',
		org_unit TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS leave_credits (
		user_id INTEGER NOT NULL,
		year INTEGER NOT NULL,
		annual_total INTEGER NOT NULL,
		annual_used INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, year),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS leaves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_leaves_user_status ON leaves(user_id, status);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		details TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errx.WrapStore(err)
	}
	return nil
}

// ResolveUser maps a username to the internal user id. Unknown usernames are
// rejected, never defaulted.
func (s *Store) ResolveUser(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, errx.WrapStore(err)
	}
	return id, nil
}

func (s *Store) currentYear() int {
	return s.now().Year()
}
