// Package sqlite is an alternative store backend that keeps each collection
// document in one SQLite row and board backups in a second table.
//
// It exists for deployments that prefer a single database file over a
// directory of JSON files. The semantics are identical to the jsonfile
// backend: whole-document replace, named snapshots, lexicographic pruning.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code; it works everywhere Go works.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/kanban-boards/internal/store"
)

// compile-time check that *DB implements store.Backend
var _ store.Backend = (*DB)(nil)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database and runs migrations.
//
// dbPath examples:
//   - "data/kanban.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would be a separate empty
	// database. One connection also matches the single-writer model.
	conn.SetMaxOpenConns(1)

	// Ping forces a real connection so a bad path fails here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating collections table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS board_backups (
			name       TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating board_backups table: %w", err)
	}
	return nil
}

func (db *DB) Read(ctx context.Context, c store.Collection) ([]byte, error) {
	var doc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT document FROM collections WHERE name = ?`, string(c),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoDocument
		}
		return nil, fmt.Errorf("sqlite: reading %s: %w", c, err)
	}
	return []byte(doc), nil
}

// Write replaces the collection document in a single statement, so the
// row is either the old document or the new one.
func (db *DB) Write(ctx context.Context, c store.Collection, doc []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO collections (name, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(c), string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s: %w", c, err)
	}
	return nil
}

// Snapshot copies the current document into board_backups inside SQLite,
// without round-tripping the bytes through Go.
func (db *DB) Snapshot(ctx context.Context, c store.Collection, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO board_backups (name, document, created_at)
		 SELECT ?, document, ? FROM collections WHERE name = ?`,
		name, time.Now().UTC(), string(c),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing backup %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking backup %s: %w", name, err)
	}
	if n == 0 {
		return store.ErrNoDocument
	}
	return nil
}

func (db *DB) ListSnapshots(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name FROM board_backups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing backups: %w", err)
	}
	// rows MUST be closed or the connection stays checked out of the pool.
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning backup name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating backups: %w", err)
	}
	return names, nil
}

func (db *DB) RemoveSnapshot(ctx context.Context, name string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM board_backups WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite: removing backup %s: %w", name, err)
	}
	return nil
}

// SnapshotDocument returns the stored bytes of one backup.
func (db *DB) SnapshotDocument(ctx context.Context, name string) ([]byte, error) {
	var doc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT document FROM board_backups WHERE name = ?`, name,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoDocument
		}
		return nil, fmt.Errorf("sqlite: reading backup %s: %w", name, err)
	}
	return []byte(doc), nil
}
