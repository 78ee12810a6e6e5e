package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const sqlSchema = `
	CREATE TABLE IF NOT EXISTS data_version (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS catalogs (
		source TEXT NOT NULL,
		version TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (source, version)
	);

	CREATE TABLE IF NOT EXISTS catalog_entries (
		source TEXT NOT NULL,
		version TEXT NOT NULL,
		norm_key TEXT NOT NULL,
		asset_ref TEXT NOT NULL,
		PRIMARY KEY (source, version, norm_key)
	);
`

// SQLStore persists catalogs in SQLite, either a local file (modernc.org/sqlite) or a
// remote libSQL/Turso database.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) a local SQLite cache database
func OpenSQLite(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps writers from tripping over SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return newSQLStore(db)
}

// OpenLibSQL connects to a libSQL/Turso database. token may be empty.
func OpenLibSQL(ctx context.Context, url, token string) (*SQLStore, error) {
	if url == "" {
		return nil, fmt.Errorf("libsql URL not configured")
	}

	connStr := url
	if token != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, token)
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libsql: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping libsql: %w", err)
	}

	return newSQLStore(db)
}

func newSQLStore(db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db, now: time.Now}
	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Load reads all entries for key
func (s *SQLStore) Load(ctx context.Context, key Key) (Entries, bool, error) {
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM catalogs WHERE source = ? AND version = ?",
		key.Source, key.Version,
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query catalog %s: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT norm_key, asset_ref FROM catalog_entries WHERE source = ? AND version = ?",
		key.Source, key.Version,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query entries for %s: %w", key, err)
	}
	defer rows.Close()

	entries := make(Entries)
	for rows.Next() {
		var k, ref string
		if err := rows.Scan(&k, &ref); err != nil {
			return nil, false, fmt.Errorf("failed to scan entry for %s: %w", key, err)
		}
		entries[k] = AssetRef(ref)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read entries for %s: %w", key, err)
	}
	return entries, true, nil
}

// Save replaces the entries for key inside a single transaction
func (s *SQLStore) Save(ctx context.Context, key Key, entries Entries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after Commit()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM catalog_entries WHERE source = ? AND version = ?",
		key.Source, key.Version,
	); err != nil {
		return fmt.Errorf("failed to clear entries for %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO catalog_entries (source, version, norm_key, asset_ref) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare catalog_entries statement: %w", err)
	}
	defer stmt.Close()

	for k, ref := range entries {
		if _, err := stmt.ExecContext(ctx, key.Source, key.Version, k, string(ref)); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", k, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO catalogs (source, version, fetched_at)
		VALUES (?, ?, ?)
	`, key.Source, key.Version, formatTime(s.now())); err != nil {
		return fmt.Errorf("failed to record catalog %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LastVersion reads the single data_version row
func (s *SQLStore) LastVersion(ctx context.Context) (VersionRecord, bool, error) {
	var version, updatedAt string
	err := s.db.QueryRowContext(ctx, "SELECT version, updated_at FROM data_version WHERE id = 1").Scan(&version, &updatedAt)
	if err == sql.ErrNoRows {
		return VersionRecord{}, false, nil
	}
	if err != nil {
		return VersionRecord{}, false, fmt.Errorf("failed to query version: %w", err)
	}
	return VersionRecord{Version: version, SeenAt: parseTime(updatedAt)}, true, nil
}

// SaveLastVersion upserts the data_version row
func (s *SQLStore) SaveLastVersion(ctx context.Context, rec VersionRecord) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO data_version (id, version, updated_at)
		VALUES (1, ?, ?)
	`, rec.Version, formatTime(rec.SeenAt)); err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}
	return nil
}

// Prune deletes catalogs fetched before the given instant
func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cutoff := formatTime(before)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM catalog_entries WHERE (source, version) IN (
			SELECT source, version FROM catalogs WHERE fetched_at < ?
		)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM catalogs WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune catalogs: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

// Clear empties every table
func (s *SQLStore) Clear(ctx context.Context) error {
	for _, table := range []string{"catalog_entries", "catalogs", "data_version"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
