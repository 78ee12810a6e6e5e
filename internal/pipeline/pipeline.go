// Package pipeline runs one build: enrichment, catalog loading, name resolution, grid
// layout and emission.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"metagrid/internal/catalog"
	"metagrid/internal/emit"
	"metagrid/internal/grid"
	"metagrid/internal/meta"
	"metagrid/internal/resolve"
)

// ErrNoInput is returned when a run has neither a document nor raw records
var ErrNoInput = errors.New("no compositions to build")

// Input is what one run lays out. Document compositions come first, then raw records.
type Input struct {
	Document *meta.Document
	Raw      []meta.RawComposition
}

// Options gathers the per-stage settings
type Options struct {
	Enrich  meta.EnrichOptions
	Resolve resolve.Options
	Grid    grid.Options
	Style   emit.Style
}

// Result is the outcome of a run
type Result struct {
	RunID      string
	Grid       *grid.Grid
	Batch      *emit.Batch
	Unresolved []resolve.Miss
	// Unavailable lists the catalog kinds that could not be loaded
	Unavailable []catalog.Kind
}

// Pipeline wires a catalog cache and its sources to the layout stages
type Pipeline struct {
	cache   *catalog.Cache
	sources []catalog.Source
	opts    Options
	log     *zap.Logger
}

// New creates a pipeline loading catalogs for sources through cache
func New(cache *catalog.Cache, sources []catalog.Source, opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cache:   cache,
		sources: sources,
		opts:    opts,
		log:     log.Named("pipeline"),
	}
}

// Run builds the grid for in and hands the batch to sink. A nil sink skips delivery.
// Unavailable catalogs degrade their kind to unresolved; layout and input errors are fatal.
func (p *Pipeline) Run(ctx context.Context, in Input, sink emit.Sink) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))

	enriched, err := p.enrich(in, log)
	if err != nil {
		return nil, err
	}
	if len(enriched) == 0 {
		return nil, ErrNoInput
	}
	log.Info("Enriched compositions", zap.Int("count", len(enriched)))

	catalogs, unavailable := p.Catalogs(ctx, log)
	resolver := resolve.New(catalogs, p.opts.Resolve, log)

	g, err := grid.Build(Compose(enriched, resolver), p.opts.Grid)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out grid: %w", err)
	}

	batch, err := emit.Build(g, p.opts.Style)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch: %w", err)
	}

	if sink != nil {
		if err := sink.Write(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to deliver batch: %w", err)
		}
	}

	misses := resolver.Report().Misses()
	log.Info("Run complete",
		zap.Int("compositions", len(g.Blocks)),
		zap.Int("rows", g.RowCount()),
		zap.Int("columns", g.Columns),
		zap.Int("unresolved", len(misses)))

	return &Result{
		RunID:       runID,
		Grid:        g,
		Batch:       batch,
		Unresolved:  misses,
		Unavailable: unavailable,
	}, nil
}

func (p *Pipeline) enrich(in Input, log *zap.Logger) ([]meta.EnrichedComposition, error) {
	var out []meta.EnrichedComposition
	if in.Document != nil {
		comps, err := in.Document.Enrich(p.opts.Enrich, log)
		if err != nil {
			return nil, fmt.Errorf("failed to enrich document: %w", err)
		}
		out = append(out, comps...)
	}
	if len(in.Raw) > 0 {
		comps, err := meta.EnrichRaw(in.Raw, p.opts.Enrich, log)
		if err != nil {
			return nil, fmt.Errorf("failed to enrich raw records: %w", err)
		}
		out = append(out, comps...)
	}
	return out, nil
}

// Catalogs loads every source's catalog. Failures are logged once and reported by kind.
func (p *Pipeline) Catalogs(ctx context.Context, log *zap.Logger) (map[catalog.Kind]*catalog.Catalog, []catalog.Kind) {
	if log == nil {
		log = p.log
	}
	catalogs := make(map[catalog.Kind]*catalog.Catalog, len(p.sources))
	var unavailable []catalog.Kind
	for _, src := range p.sources {
		cat, err := p.cache.Get(ctx, src)
		if err != nil {
			log.Warn("Catalog unavailable, names of this kind stay unresolved",
				zap.String("kind", string(src.Kind())), zap.String("source", src.Name()), zap.Error(err))
			unavailable = append(unavailable, src.Kind())
			continue
		}
		catalogs[src.Kind()] = cat
	}
	return catalogs, unavailable
}

// Compose resolves the names of enriched compositions into layout input. Unresolved
// portraits stay empty and unresolved items are dropped.
func Compose(enriched []meta.EnrichedComposition, r *resolve.Resolver) []grid.Composition {
	out := make([]grid.Composition, 0, len(enriched))
	for _, ec := range enriched {
		c := grid.Composition{
			Tier:       ec.Tier,
			Title:      ec.Title,
			EarlyPicks: ec.EarlyPicks,
			Carries:    ec.Carries,
			Synergies:  make([]grid.Synergy, 0, len(ec.Synergies)),
			Champions:  make([]grid.Champion, 0, len(ec.Champions)),
		}
		for _, name := range ec.Synergies {
			c.Synergies = append(c.Synergies, grid.Synergy{
				Name: name,
				Icon: r.Image(catalog.KindTraits, name),
			})
		}
		for _, ch := range ec.Champions {
			var items []string
			for _, item := range ch.Items {
				if url := r.Image(catalog.KindItems, item); url != "" {
					items = append(items, url)
				}
			}
			c.Champions = append(c.Champions, grid.Champion{
				Name:     ch.Name,
				Cost:     ch.Cost,
				Stars:    ch.Stars,
				Portrait: r.Image(catalog.KindCharacters, ch.Name),
				Items:    items,
			})
		}
		out = append(out, c)
	}
	return out
}
