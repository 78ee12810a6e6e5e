package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
	CREATE TABLE IF NOT EXISTS metagrid_data_version (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metagrid_catalogs (
		source TEXT NOT NULL,
		version TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (source, version)
	);

	CREATE TABLE IF NOT EXISTS metagrid_catalog_entries (
		source TEXT NOT NULL,
		version TEXT NOT NULL,
		norm_key TEXT NOT NULL,
		asset_ref TEXT NOT NULL,
		PRIMARY KEY (source, version, norm_key)
	);
`

// PGStore persists catalogs in PostgreSQL so several machines can share one cache
type PGStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to databaseURL and creates the schema
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PGStore{pool: pool, now: time.Now}, nil
}

// Load reads all entries for key
func (s *PGStore) Load(ctx context.Context, key Key) (Entries, bool, error) {
	var fetchedAt time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT fetched_at FROM metagrid_catalogs
		WHERE source = $1 AND version = $2
	`, key.Source, key.Version).Scan(&fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query catalog %s: %w", key, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT norm_key, asset_ref FROM metagrid_catalog_entries
		WHERE source = $1 AND version = $2
	`, key.Source, key.Version)
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

// Save replaces the entries for key in one transaction using COPY for the rows
func (s *PGStore) Save(ctx context.Context, key Key, entries Entries) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM metagrid_catalog_entries WHERE source = $1 AND version = $2
	`, key.Source, key.Version); err != nil {
		return fmt.Errorf("failed to clear entries for %s: %w", key, err)
	}

	rows := make([][]any, 0, len(entries))
	for k, ref := range entries {
		rows = append(rows, []any{key.Source, key.Version, k, string(ref)})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"metagrid_catalog_entries"},
		[]string{"source", "version", "norm_key", "asset_ref"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to copy entries for %s: %w", key, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO metagrid_catalogs (source, version, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, version) DO UPDATE SET fetched_at = excluded.fetched_at
	`, key.Source, key.Version, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to record catalog %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LastVersion reads the single version row
func (s *PGStore) LastVersion(ctx context.Context) (VersionRecord, bool, error) {
	var rec VersionRecord
	err := s.pool.QueryRow(ctx, `
		SELECT version, updated_at FROM metagrid_data_version WHERE id = 1
	`).Scan(&rec.Version, &rec.SeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return VersionRecord{}, false, nil
	}
	if err != nil {
		return VersionRecord{}, false, fmt.Errorf("failed to query version: %w", err)
	}
	return rec, true, nil
}

// SaveLastVersion upserts the version row
func (s *PGStore) SaveLastVersion(ctx context.Context, rec VersionRecord) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO metagrid_data_version (id, version, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at
	`, rec.Version, rec.SeenAt.UTC()); err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}
	return nil
}

// Prune deletes catalogs fetched before the given instant
func (s *PGStore) Prune(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM metagrid_catalog_entries e
		USING metagrid_catalogs c
		WHERE e.source = c.source AND e.version = c.version AND c.fetched_at < $1
	`, before.UTC()); err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM metagrid_catalogs WHERE fetched_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune catalogs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Clear empties every table
func (s *PGStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		TRUNCATE metagrid_catalog_entries, metagrid_catalogs, metagrid_data_version
	`); err != nil {
		return fmt.Errorf("failed to clear catalogs: %w", err)
	}
	return nil
}

// Close closes the pool
func (s *PGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
