// Package resolve maps free-form names from meta notes to catalog asset references.
//
// Resolution order per name: verbatim alias, normalized exact key, then the best fuzzy
// candidate over the catalog's sorted key snapshot. A miss is never an error; it is
// logged once per distinct literal and kept in the run's Report.
package resolve

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"metagrid/internal/catalog"
	"metagrid/internal/normalize"
)

// Options configures a Resolver
type Options struct {
	// Threshold is the fuzzy acceptance ratio, DefaultThreshold when zero
	Threshold float64
	// Aliases are merged over DefaultAliases
	Aliases Aliases
}

type fuzzyKey struct {
	kind catalog.Kind
	key  string
}

// Resolver resolves names against a fixed set of catalogs. Kinds without a catalog
// (e.g. the upstream was unavailable) resolve nothing.
type Resolver struct {
	catalogs map[catalog.Kind]*catalog.Catalog
	aliases  Aliases
	matcher  *Matcher
	report   *Report
	log      *zap.Logger

	mu    sync.Mutex
	fuzzy map[fuzzyKey]catalog.AssetRef
}

// New creates a resolver over catalogs. Nil catalogs are ignored.
func New(catalogs map[catalog.Kind]*catalog.Catalog, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	cats := make(map[catalog.Kind]*catalog.Catalog, len(catalogs))
	for kind, cat := range catalogs {
		if cat != nil {
			cats[kind] = cat
		}
	}
	return &Resolver{
		catalogs: cats,
		aliases:  DefaultAliases().Merge(opts.Aliases),
		matcher:  NewMatcher(opts.Threshold),
		report:   NewReport(),
		log:      log.Named("resolve"),
		fuzzy:    make(map[fuzzyKey]catalog.AssetRef),
	}
}

// Report returns the unresolved-name report of this resolver
func (r *Resolver) Report() *Report {
	return r.report
}

// Resolve maps raw to an asset reference of kind. An empty literal is unresolved and not
// reported; any other miss is recorded.
func (r *Resolver) Resolve(kind catalog.Kind, raw string) (catalog.AssetRef, bool) {
	literal := strings.TrimSpace(raw)
	if literal == "" {
		return "", false
	}
	if ref, ok := r.lookup(kind, literal); ok {
		return ref, true
	}
	r.miss(kind, literal)
	return "", false
}

// URL turns a reference from the catalog of kind into an image URL
func (r *Resolver) URL(kind catalog.Kind, ref catalog.AssetRef) string {
	cat, ok := r.catalogs[kind]
	if !ok {
		return ""
	}
	return cat.URL(ref)
}

// Image resolves raw and returns its image URL, or "" when unresolved. Characters
// missing from the TFT unit catalog are looked up in the League champion catalog before
// being reported.
func (r *Resolver) Image(kind catalog.Kind, raw string) string {
	literal := strings.TrimSpace(raw)
	if literal == "" {
		return ""
	}

	if ref, ok := r.lookup(kind, literal); ok {
		return r.URL(kind, ref)
	}
	if kind == catalog.KindCharacters {
		if ref, ok := r.lookup(catalog.KindChampions, literal); ok {
			r.log.Debug("Resolved character from champion catalog", zap.String("name", literal))
			return r.URL(catalog.KindChampions, ref)
		}
	}
	r.miss(kind, literal)
	return ""
}

func (r *Resolver) lookup(kind catalog.Kind, literal string) (catalog.AssetRef, bool) {
	cat, ok := r.catalogs[kind]
	if !ok {
		return "", false
	}

	target := literal
	if to, ok := r.aliases.Lookup(kind, literal); ok {
		target = to
	}

	key := normalize.Key(target)
	if key == "" {
		return "", false
	}
	if ref, ok := cat.Lookup(key); ok {
		return ref, true
	}
	return r.fuzzyLookup(kind, cat, key)
}

func (r *Resolver) fuzzyLookup(kind catalog.Kind, cat *catalog.Catalog, key string) (catalog.AssetRef, bool) {
	fk := fuzzyKey{kind: kind, key: key}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, ok := r.fuzzy[fk]; ok {
		return ref, ref != ""
	}

	best, score, ok := r.matcher.Best(key, cat.Keys())
	if !ok {
		r.fuzzy[fk] = ""
		return "", false
	}
	ref, _ := cat.Lookup(best)
	r.log.Debug("Fuzzy match",
		zap.String("kind", string(kind)),
		zap.String("key", key),
		zap.String("match", best),
		zap.Float64("score", score))
	r.fuzzy[fk] = ref
	return ref, true
}

func (r *Resolver) miss(kind catalog.Kind, literal string) {
	if r.report.Record(kind, literal) {
		r.log.Warn("Unresolved name", zap.String("kind", string(kind)), zap.String("name", literal))
	}
}
