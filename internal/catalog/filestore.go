package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const versionFile = "latest_version.txt"

// FileStore keeps one JSON file per (source, version) plus a text file holding the
// last-seen version. Writes go to a temp file that is renamed into place.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, key.String()+".json")
}

// Load reads a cached catalog. A missing file is a miss, not an error.
func (s *FileStore) Load(ctx context.Context, key Key) (Entries, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached catalog %s: %w", key, err)
	}

	var entries Entries
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to parse cached catalog %s: %w", key, err)
	}
	return entries, true, nil
}

// Save writes the catalog atomically
func (s *FileStore) Save(ctx context.Context, key Key, entries Entries) error {
	// encoding/json sorts map keys, so equal entries give byte-identical files
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog %s: %w", key, err)
	}
	return s.writeAtomic(s.path(key), data)
}

// LastVersion reads the version file; its modification time is the seen-at instant
func (s *FileStore) LastVersion(ctx context.Context) (VersionRecord, bool, error) {
	path := filepath.Join(s.dir, versionFile)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return VersionRecord{}, false, nil
		}
		return VersionRecord{}, false, fmt.Errorf("failed to stat version file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return VersionRecord{}, false, fmt.Errorf("failed to read version file: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return VersionRecord{}, false, nil
	}
	return VersionRecord{Version: v, SeenAt: info.ModTime()}, true, nil
}

// SaveLastVersion writes the version file and stamps it with rec.SeenAt
func (s *FileStore) SaveLastVersion(ctx context.Context, rec VersionRecord) error {
	path := filepath.Join(s.dir, versionFile)
	if err := s.writeAtomic(path, []byte(rec.Version)); err != nil {
		return err
	}
	if !rec.SeenAt.IsZero() {
		if err := os.Chtimes(path, rec.SeenAt, rec.SeenAt); err != nil {
			return fmt.Errorf("failed to stamp version file: %w", err)
		}
	}
	return nil
}

// Prune removes catalog files last written before the given instant
func (s *FileStore) Prune(ctx context.Context, before time.Time) (int, error) {
	files, err := s.catalogFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			removed++
		}
	}
	return removed, nil
}

// Clear removes all catalog files and the version file
func (s *FileStore) Clear(ctx context.Context) error {
	files, err := s.catalogFiles()
	if err != nil {
		return err
	}
	files = append(files, filepath.Join(s.dir, versionFile))
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) catalogFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}
	return files, nil
}

// writeAtomic writes data next to path and renames it into place so a crash never
// leaves a truncated file behind
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
