// Package memberdb maintains the member identity graph: the member
// table and its discord, wynn and guild profiles.
//
// All writes go through Store.Begin and the mutation methods on Tx,
// which preserve the following after every committed transaction:
//  1. No dangling profile link: a member's links point at existing
//     profiles.
//  2. No dangling member link: a profile's member link points at an
//     existing member, and the member links back (closed links).
//  3. No empty member: a member with no links is deleted.
//  4. Guild-wynn relation: a guild profile exists iff the wynn
//     profile's guild flag is set.
//  5. Member type: a member's type matches its linked profiles.
//
// The mutation methods assume the integrity of the database as a
// precondition and only preserve it after the modification; they do
// not validate that the requested modification itself makes sense
// beyond the preconditions documented per method.
package memberdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nova-gc/wynnbot/internal/event"
)

// querier is implemented by *sql.DB and *sql.Tx so the fetch helpers
// can run both inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the identity store. It owns the SQLite handle and the
// event bus that committed transactions publish to.
type Store struct {
	db  *sql.DB
	bus *event.Bus[Event]

	// Coarse writer lock: mutating transactions serialize here so two
	// concurrent cascades touching the same member cannot interleave.
	writeMu sync.Mutex
}

// Open opens (creating if missing) the database at dbPath and runs
// the schema migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		db:  db,
		bus: event.NewBus[Event](64),
	}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS member (
			oid INTEGER PRIMARY KEY AUTOINCREMENT,
			discord INTEGER,
			mcid VARCHAR(40),
			type VARCHAR(10) NOT NULL,
			rank VARCHAR(10) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discord (
			id INTEGER PRIMARY KEY,
			mid INTEGER,
			message INTEGER NOT NULL DEFAULT 0,
			message_week INTEGER NOT NULL DEFAULT 0,
			image INTEGER NOT NULL DEFAULT 0,
			reaction INTEGER NOT NULL DEFAULT 0,
			voice INTEGER NOT NULL DEFAULT 0,
			voice_week INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS wynn (
			id VARCHAR(40) PRIMARY KEY,
			mid INTEGER,
			guild INTEGER NOT NULL DEFAULT 0,
			ign VARCHAR(20) NOT NULL,
			activity INTEGER NOT NULL DEFAULT 0,
			activity_week INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS guild (
			id VARCHAR(40) PRIMARY KEY,
			rank VARCHAR(12) NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			xp_week INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_member_discord ON member(discord)`,
		`CREATE INDEX IF NOT EXISTS idx_member_mcid ON member(mcid)`,
		`CREATE INDEX IF NOT EXISTS idx_wynn_ign ON wynn(ign)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Subscribe returns a channel of committed events and a cancel
// function. Slow subscribers may miss events; see the event package.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.bus.Subscribe()
}

// Publish broadcasts an event outside of any transaction. Used by
// callers that emit events the engine deliberately does not, such as
// MemberRankChange.
func (s *Store) Publish(ev Event) {
	s.bus.Publish(ev)
}

// Begin starts a mutating transaction. Only one mutating transaction
// runs at a time; Begin blocks until the previous one finishes. The
// returned Tx must be resolved with Commit or Rollback.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	s.writeMu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, store: s}, nil
}

// Tx is a mutating transaction over the identity store. Events
// emitted by mutations are buffered and only published, in emission
// order, when the transaction commits; a rollback discards them.
type Tx struct {
	tx     *sql.Tx
	store  *Store
	events []Event
	done   bool
}

// signal queues an event for publication at commit time.
func (t *Tx) signal(ev Event) {
	t.events = append(t.events, ev)
}

// Commit commits the transaction and publishes its buffered events.
func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	defer t.store.writeMu.Unlock()

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, ev := range t.events {
		t.store.bus.Publish(ev)
	}
	t.events = nil
	return nil
}

// Rollback aborts the transaction and discards its buffered events.
// Rolling back a finished transaction is a no-op, so it is safe to
// defer.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.store.writeMu.Unlock()

	t.events = nil
	return t.tx.Rollback()
}
