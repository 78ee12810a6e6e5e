package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options tunes a Cache
type Options struct {
	// VersionMaxAge is how long a persisted last-seen version is trusted before asking
	// upstream again. Zero or negative trusts it forever.
	VersionMaxAge time.Duration
	// FetchTimeout bounds each upstream catalog fetch. Zero means no extra bound.
	FetchTimeout time.Duration
}

// Cache loads catalogs lazily: memory first, then the store, then upstream.
// A Cache is built once per run and handed to whoever needs catalogs.
type Cache struct {
	store    Store
	versions VersionProvider
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	version  string
	catalogs map[Key]*Catalog
}

// NewCache creates a cache over store using versions to learn the upstream version
func NewCache(store Store, versions VersionProvider, opts Options, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		store:    store,
		versions: versions,
		opts:     opts,
		log:      log.Named("catalog"),
		now:      time.Now,
		catalogs: make(map[Key]*Catalog),
	}
}

// Version returns the upstream version, resolved at most once per Cache.
// A persisted version younger than VersionMaxAge is reused; when upstream is
// unreachable a stale persisted version is used rather than failing.
func (c *Cache) Version(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versionLocked(ctx)
}

func (c *Cache) versionLocked(ctx context.Context) (string, error) {
	if c.version != "" {
		return c.version, nil
	}

	rec, haveRec, err := c.store.LastVersion(ctx)
	if err != nil {
		c.log.Warn("Failed to read last-seen version", zap.Error(err))
		haveRec = false
	}
	if haveRec && (c.opts.VersionMaxAge <= 0 || c.now().Sub(rec.SeenAt) < c.opts.VersionMaxAge) {
		c.log.Debug("Using cached version", zap.String("version", rec.Version), zap.Time("seen_at", rec.SeenAt))
		c.version = rec.Version
		return c.version, nil
	}

	latest, err := c.versions.LatestVersion(ctx)
	if err != nil {
		if haveRec {
			c.log.Warn("Upstream version unavailable, using stale version",
				zap.String("version", rec.Version), zap.Error(err))
			c.version = rec.Version
			return c.version, nil
		}
		return "", fmt.Errorf("%w: failed to fetch version: %w", ErrCatalogUnavailable, err)
	}

	if err := c.store.SaveLastVersion(ctx, VersionRecord{Version: latest, SeenAt: c.now()}); err != nil {
		c.log.Warn("Failed to persist version", zap.Error(err))
	}
	c.log.Info("Using upstream version", zap.String("version", latest))
	c.version = latest
	return c.version, nil
}

// Get returns the catalog of src for the current version.
// Failures wrap ErrCatalogUnavailable; an empty catalog is never substituted.
func (c *Cache) Get(ctx context.Context, src Source) (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	version, err := c.versionLocked(ctx)
	if err != nil {
		return nil, err
	}

	key := Key{Source: src.Name(), Version: version}
	if cat, ok := c.catalogs[key]; ok {
		return cat, nil
	}

	entries, ok, err := c.store.Load(ctx, key)
	if err != nil {
		// a corrupt entry is refetched and overwritten
		c.log.Warn("Ignoring unreadable cached catalog", zap.Stringer("key", key), zap.Error(err))
		ok = false
	}
	if ok && len(entries) > 0 {
		c.log.Debug("Catalog cache hit", zap.Stringer("key", key), zap.Int("entries", len(entries)))
		cat := New(src, version, entries)
		c.catalogs[key] = cat
		return cat, nil
	}

	entries, err = c.fetch(ctx, src, version)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, src.Name(), err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: upstream returned no entries", ErrCatalogUnavailable, src.Name())
	}

	if err := c.store.Save(ctx, key, entries); err != nil {
		c.log.Warn("Failed to persist catalog", zap.Stringer("key", key), zap.Error(err))
	}
	c.log.Info("Loaded catalog", zap.Stringer("key", key), zap.Int("entries", len(entries)))

	cat := New(src, version, entries)
	c.catalogs[key] = cat
	return cat, nil
}

func (c *Cache) fetch(ctx context.Context, src Source, version string) (Entries, error) {
	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}
	return src.Fetch(ctx, version)
}

// Clear drops every persisted catalog, the last-seen version and the in-memory state
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.version = ""
	c.catalogs = make(map[Key]*Catalog)
	c.log.Info("Catalog cache cleared")
	return nil
}

// Prune drops persisted catalogs older than maxAge
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := c.store.Prune(ctx, c.now().Add(-maxAge))
	if err != nil {
		return n, err
	}
	c.log.Info("Pruned catalogs", zap.Int("removed", n), zap.Duration("max_age", maxAge))
	return n, nil
}
