package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	key := Key{Source: "characters-TFTSet13", Version: "14.1.1"}
	_, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := Entries{"ahri": "TFT13_Ahri", "jinx": "TFT13_Jinx"}
	require.NoError(t, store.Save(ctx, key, entries))

	got, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries, got)

	_, err = os.Stat(filepath.Join(store.Dir(), "characters-TFTSet13_14.1.1.json"))
	assert.NoError(t, err)
}

func TestFileStoreSaveIsByteStable(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := Key{Source: "items", Version: "1"}
	entries := Entries{"b": "2", "a": "1", "c": "3"}

	require.NoError(t, store.Save(ctx, key, entries))
	first, err := os.ReadFile(filepath.Join(store.Dir(), key.String()+".json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, key, entries))
	second, err := os.ReadFile(filepath.Join(store.Dir(), key.String()+".json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	leftovers, err := filepath.Glob(filepath.Join(store.Dir(), ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := Key{Source: "items", Version: "1"}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), key.String()+".json"), []byte("{not json"), 0644))

	_, _, err = store.Load(ctx, key)
	assert.Error(t, err)
}

func TestFileStoreVersion(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.LastVersion(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seen := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.SaveLastVersion(ctx, VersionRecord{Version: "15.1.1", SeenAt: seen}))

	rec, ok, err := store.LastVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "15.1.1", rec.Version)
	assert.True(t, rec.SeenAt.Equal(seen), "seen_at = %v", rec.SeenAt)

	data, err := os.ReadFile(filepath.Join(store.Dir(), versionFile))
	require.NoError(t, err)
	assert.Equal(t, "15.1.1", string(data))
}

func TestFileStorePruneAndClear(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	oldKey := Key{Source: "items", Version: "13.1.1"}
	newKey := Key{Source: "items", Version: "14.1.1"}
	require.NoError(t, store.Save(ctx, oldKey, Entries{"a": "1"}))
	require.NoError(t, store.Save(ctx, newKey, Entries{"a": "1"}))

	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), oldKey.String()+".json"), past, past))

	n, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := store.Load(ctx, oldKey)
	assert.False(t, ok)
	_, ok, _ = store.Load(ctx, newKey)
	assert.True(t, ok)

	require.NoError(t, store.SaveLastVersion(ctx, VersionRecord{Version: "14.1.1", SeenAt: time.Now()}))
	require.NoError(t, store.Clear(ctx))

	files, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "characters-all_14.1.1", Key{Source: "characters-all", Version: "14.1.1"}.String())
	assert.Equal(t, "items_..-..-etc", Key{Source: "items", Version: "../../etc"}.String())
}
