package shelf

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/ctybind/internal/ctxlog"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS shelf (
	key        TEXT PRIMARY KEY,
	class      TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLite is a Store kept in one SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path and ensures the
// table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	logger := ctxlog.FromContext(ctx)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open shelf %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create shelf table in %s: %w", path, err)
	}
	logger.Debug("Opened SQLite shelf.", "path", path)
	return &SQLite{db: db, now: time.Now}, nil
}

// Put stores or replaces the entry for key.
func (s *SQLite) Put(ctx context.Context, key, class, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shelf (key, class, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET class = excluded.class, payload = excluded.payload, updated_at = excluded.updated_at`,
		key, class, payload, s.now().Unix())
	if err != nil {
		return fmt.Errorf("shelf put %q: %w", key, err)
	}
	return nil
}

// Get returns the payload stored under key.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	e, err := s.Entry(ctx, key)
	return e.Payload, err
}

// Entry returns the full entry stored under key.
func (s *SQLite) Entry(ctx context.Context, key string) (Entry, error) {
	e := Entry{Key: key}
	err := s.db.QueryRowContext(ctx, `SELECT class, payload FROM shelf WHERE key = ?`, key).Scan(&e.Class, &e.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("shelf get %q: %w", key, err)
	}
	return e, nil
}

// Keys lists the stored keys in sorted order.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM shelf ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("shelf keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("shelf keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shelf WHERE key = ?`, key); err != nil {
		return fmt.Errorf("shelf delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
