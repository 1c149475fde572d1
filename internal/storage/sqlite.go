package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/nyrr-watch/internal/crypto"
	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	scraped_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps the snapshot as one row of a key/value table
type SQLiteStore struct {
	db    *sql.DB
	key   string
	codec codec
}

// NewSQLiteStore opens (and creates) the database at path
func NewSQLiteStore(path, key string, busyTimeout time.Duration, enc *crypto.Encryptor) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// One writer per run; SQLite prefers a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	applyPragmas(db, busyTimeout, path)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	if key == "" {
		key = DefaultKey
	}
	return &SQLiteStore{db: db, key: key, codec: codec{enc: enc}}, nil
}

// applyPragmas tunes the connection. The store works without them, so a
// failure is logged and the open carries on.
func applyPragmas(db *sql.DB, busyTimeout time.Duration, path string) {
	pragmas := make([]string, 0, 2)
	if busyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()))
	}
	pragmas = append(pragmas, "PRAGMA journal_mode = WAL")

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logger.Warn("SQLite pragma failed", logger.Fields{
				"pragma": p,
				"path":   path,
				"error":  err.Error(),
			})
		}
	}
}

// Load reads the snapshot row
func (s *SQLiteStore) Load(ctx context.Context) (*race.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	return s.codec.decode(body)
}

// Save upserts the snapshot row
func (s *SQLiteStore) Save(ctx context.Context, snapshot *race.Snapshot) error {
	body, err := s.codec.encode(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots(key, body, scraped_at, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(key) DO UPDATE SET body=excluded.body, scraped_at=excluded.scraped_at, updated_at=excluded.updated_at`,
		s.key, body, snapshot.ScrapedAt, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "writing snapshot")
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
