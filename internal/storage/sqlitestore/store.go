// Package sqlitestore keeps pages, static assets and templates in a single
// SQLite database, one bucket per content class.
package sqlitestore

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"

	"wikix/internal/storage"
)

type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	d := &DB{db: db}
	if err := d.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) init() error {
	if _, err := d.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var v int
	err := d.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = d.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if v != schemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", v, schemaVersion)
	}
	return nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Bucket returns a Storage view over one content class. ext filters and
// strips names yielded by Each, like fs.Folder.
func (d *DB) Bucket(name, ext string) *Store {
	return &Store{db: d.db, bucket: name, ext: ext}
}

type Store struct {
	db     *sql.DB
	bucket string
	ext    string
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Dated   = (*Store)(nil)
)

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) Exists(name string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM blobs WHERE bucket = ? AND name = ?", s.bucket, name).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("sqlite exists", "bucket", s.bucket, "name", name, "err", err)
	}
	return err == nil
}

func (s *Store) Content(name string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM blobs WHERE bucket = ? AND name = ?", s.bucket, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, true, nil
}

// Edit upserts the entry. Rewriting identical content leaves the row, and
// its updated_at, untouched.
func (s *Store) Edit(name string, data []byte) error {
	if err := storage.CheckName(name); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(`
INSERT INTO blobs(bucket, name, data, digest, updated_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(bucket, name) DO UPDATE SET
	data = excluded.data,
	digest = excluded.digest,
	updated_at = excluded.updated_at
WHERE blobs.digest <> excluded.digest`,
		s.bucket, name, data, digest(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Each runs its query when iteration starts and releases the rows before
// yielding, so callers may query the store from inside the loop.
func (s *Store) Each() iter.Seq[string] {
	return func(yield func(string) bool) {
		rows, err := s.db.Query("SELECT name FROM blobs WHERE bucket = ? ORDER BY name", s.bucket)
		if err != nil {
			slog.Warn("sqlite list", "bucket", s.bucket, "err", err)
			return
		}
		var names []string
		for rows.Next() {
			var entry string
			if err := rows.Scan(&entry); err != nil {
				slog.Warn("sqlite list scan", "bucket", s.bucket, "err", err)
				break
			}
			if name, ok := storage.MatchExt(entry, s.ext); ok {
				names = append(names, name)
			}
		}
		if err := rows.Err(); err != nil {
			slog.Warn("sqlite list rows", "bucket", s.bucket, "err", err)
		}
		_ = rows.Close()
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

func (s *Store) Move(oldName, newName string) error {
	for _, name := range []string{oldName, newName} {
		if err := storage.CheckName(name); err != nil {
			return err
		}
	}
	if s.Exists(newName) {
		return fmt.Errorf("%s %w", newName, storage.ErrExists)
	}
	res, err := s.db.Exec("UPDATE blobs SET name = ?, updated_at = ? WHERE bucket = ? AND name = ?",
		newName, time.Now().Unix(), s.bucket, oldName)
	if err != nil {
		return fmt.Errorf("failed to move %q to %q: %w", oldName, newName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to move %q to %q: no such entry", oldName, newName)
	}
	return nil
}

func (s *Store) Delete(name string) error {
	if err := storage.CheckName(name); err != nil {
		return err
	}
	res, err := s.db.Exec("DELETE FROM blobs WHERE bucket = ? AND name = ?", s.bucket, name)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to delete %q: no such entry", name)
	}
	return nil
}

// UpdatedAt reports when the entry last changed content.
func (s *Store) UpdatedAt(name string) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRow("SELECT updated_at FROM blobs WHERE bucket = ? AND name = ?", s.bucket, name).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}
