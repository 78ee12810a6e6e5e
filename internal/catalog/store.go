package catalog

import (
	"context"
	"strings"
	"time"
)

// Key addresses one persisted catalog
type Key struct {
	Source  string
	Version string
}

// String returns "<source>_<version>", the file stem used by the file store
func (k Key) String() string {
	return sanitize(k.Source) + "_" + sanitize(k.Version)
}

// VersionRecord is the last upstream version seen and when it was seen
type VersionRecord struct {
	Version string
	SeenAt  time.Time
}

// Store persists catalogs across runs. Implementations must make Save all-or-nothing.
type Store interface {
	Load(ctx context.Context, key Key) (Entries, bool, error)
	Save(ctx context.Context, key Key, entries Entries) error
	LastVersion(ctx context.Context) (VersionRecord, bool, error)
	SaveLastVersion(ctx context.Context, rec VersionRecord) error
	// Prune removes catalogs fetched before the given instant and reports how many went
	Prune(ctx context.Context, before time.Time) (int, error)
	// Clear removes every catalog and the last-seen version
	Clear(ctx context.Context) error
	Close() error
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

// timeLayout is fixed width so SQL stores can compare timestamps as text
const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*PGStore)(nil)
)
