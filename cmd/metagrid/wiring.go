package main

import (
	"context"
	"fmt"

	"metagrid/internal/catalog"
	"metagrid/internal/config"
	"metagrid/internal/ddragon"
	"metagrid/internal/emit"
	"metagrid/internal/grid"
	"metagrid/internal/meta"
	"metagrid/internal/pipeline"
	"metagrid/internal/resolve"
)

func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	switch cfg.Cache.Store {
	case config.StoreMemory:
		return catalog.NewMemoryStore(), nil
	case config.StoreFile:
		return catalog.NewFileStore(cfg.Cache.Dir)
	case config.StoreSQLite:
		return catalog.OpenSQLite(cfg.StoreDSN())
	case config.StoreLibSQL:
		return catalog.OpenLibSQL(ctx, cfg.Cache.DSN, cfg.Cache.AuthToken)
	case config.StorePostgres:
		return catalog.OpenPostgres(ctx, cfg.Cache.DSN)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Cache.Store)
	}
}

func newClient(cfg *config.Config) *ddragon.Client {
	return ddragon.NewClient(ddragon.Options{
		VersionsURL:        cfg.Upstream.VersionsURL,
		CDNBase:            cfg.Upstream.CDNBase,
		TeamplannerURL:     cfg.Upstream.TeamplannerURL,
		MetaTFTBase:        cfg.Upstream.MetaTFTBase,
		Locale:             cfg.Upstream.Locale,
		Timeout:            cfg.Upstream.Timeout,
		TeamplannerTimeout: cfg.Upstream.TeamplannerTimeout,
	})
}

// sources lists every catalog a build needs, characters first
func sources(cfg *config.Config, client *ddragon.Client) []catalog.Source {
	return []catalog.Source{
		client.Characters(cfg.Upstream.SetKey),
		client.Champions(),
		client.Items(),
		client.Traits(),
	}
}

// session is the catalog side of a command: store, cache and sources
type session struct {
	store   catalog.Store
	cache   *catalog.Cache
	sources []catalog.Source
}

func openSession(ctx context.Context) (*session, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}
	client := newClient(cfg)
	cache := catalog.NewCache(store, client, catalog.Options{
		VersionMaxAge: cfg.Cache.VersionMaxAge,
		FetchTimeout:  cfg.Upstream.TeamplannerTimeout,
	}, logger)
	return &session{store: store, cache: cache, sources: sources(cfg, client)}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func aliases(cfg *config.Config) resolve.Aliases {
	out := make(resolve.Aliases, len(cfg.Resolve.Aliases))
	for kind, table := range cfg.Resolve.Aliases {
		out[catalog.Kind(kind)] = table
	}
	return out
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	gridOpts := grid.DefaultOptions()
	gridOpts.MinChampionColumns = cfg.Layout.MinChampionColumns
	gridOpts.Header = cfg.Layout.Header
	gridOpts.PortraitSize = cfg.Layout.PortraitSize
	gridOpts.ItemSize = cfg.Layout.ItemSize
	gridOpts.SynergySize = cfg.Layout.SynergySize

	style := emit.DefaultStyle()
	style.SpreadsheetID = emit.ExtractSpreadsheetID(cfg.Output.SpreadsheetID)
	style.SheetName = cfg.Output.SheetName
	style.SheetID = cfg.Output.SheetID
	style.KeepSynergyRows = cfg.Layout.KeepSynergyRows

	return pipeline.Options{
		Enrich: meta.EnrichOptions{
			Thresholds:       cfg.Tiers,
			ItemsPerChampion: cfg.Layout.ItemsPerChampion,
		},
		Resolve: resolve.Options{
			Threshold: cfg.Resolve.Threshold,
			Aliases:   aliases(cfg),
		},
		Grid:  gridOpts,
		Style: style,
	}
}
