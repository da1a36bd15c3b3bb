// internal/adapters/out/localstore/sqlite_store.go
package localstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"anusswar/internal/pkg/clock"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// Store is the device key/value store backed by a SQLite file.
// It satisfies cartsync.LocalStore and auth.KV.
type Store struct {
	db    *sql.DB
	path  string
	clock clock.Clock
}

// Open creates the file and its directory when missing.
func Open(path string, clk clock.Clock) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("localstore: path is empty")
	}
	if clk == nil {
		clk = clock.Real()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "localstore: create directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "localstore: open")
	}
	// One writer; the CLI and its watch goroutine share the handle.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{`PRAGMA busy_timeout = 5000`, `PRAGMA journal_mode = WAL`, schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "localstore: init %q", firstLine(stmt))
		}
	}
	return &Store{db: db, path: path, clock: clk}, nil
}

func (s *Store) Path() string { return s.path }

// Get returns ("", false, nil) when key is absent.
func (s *Store) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "localstore: get %s", key)
	}
	return v, true, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.clock.Now().UTC(),
	)
	return errors.Wrapf(err, "localstore: set %s", key)
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return errors.Wrapf(err, "localstore: delete %s", key)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
