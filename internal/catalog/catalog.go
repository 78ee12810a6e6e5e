package catalog

import (
	"context"
	"errors"
	"sort"

	"metagrid/internal/normalize"
)

// Kind identifies what a catalog names
type Kind string

const (
	KindCharacters Kind = "characters" // TFT units (CommunityDragon teamplanner)
	KindChampions  Kind = "champions"  // League champions (Data Dragon), fallback for characters
	KindItems      Kind = "items"
	KindTraits     Kind = "traits"
)

// ErrCatalogUnavailable wraps any network or parse failure while loading a catalog
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// AssetRef identifies the image resource of a resolved name (an internal id or image file).
// The zero value means unresolved.
type AssetRef string

// Entries maps normalized keys to asset references
type Entries map[string]AssetRef

// Add indexes name under its normalized key. Empty keys and refs are ignored.
// On a key collision the lexicographically smaller ref wins so that the result does
// not depend on upstream iteration order.
func (e Entries) Add(name string, ref AssetRef) {
	key := normalize.Key(name)
	if key == "" || ref == "" {
		return
	}
	if existing, ok := e[key]; ok && existing <= ref {
		return
	}
	e[key] = ref
}

// Source fetches the upstream document for one catalog and knows how to turn its refs
// into image URLs.
type Source interface {
	// Name is the cache identity of the source, e.g. "items" or "characters-TFTSet16"
	Name() string
	Kind() Kind
	Fetch(ctx context.Context, version string) (Entries, error)
	ImageURL(version string, ref AssetRef) string
}

// VersionProvider yields the current upstream version id
type VersionProvider interface {
	LatestVersion(ctx context.Context) (string, error)
}

// Catalog is an immutable, versioned lookup table
type Catalog struct {
	kind    Kind
	source  Source
	version string
	entries Entries
	keys    []string
}

// New builds a catalog over a private copy of entries
func New(src Source, version string, entries Entries) *Catalog {
	copied := make(Entries, len(entries))
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		copied[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Catalog{
		kind:    src.Kind(),
		source:  src,
		version: version,
		entries: copied,
		keys:    keys,
	}
}

// Kind returns the catalog kind
func (c *Catalog) Kind() Kind {
	return c.kind
}

// Version returns the upstream version the catalog was built from
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of keys
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup finds the ref stored under an already normalized key
func (c *Catalog) Lookup(key string) (AssetRef, bool) {
	ref, ok := c.entries[key]
	return ref, ok
}

// Keys returns the sorted key snapshot. Callers must not modify it.
func (c *Catalog) Keys() []string {
	return c.keys
}

// URL returns the image URL for ref, or "" for an empty ref
func (c *Catalog) URL(ref AssetRef) string {
	if ref == "" {
		return ""
	}
	return c.source.ImageURL(c.version, ref)
}
