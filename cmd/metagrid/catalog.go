package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"metagrid/internal/catalog"
	"metagrid/internal/pipeline"
)

var pruneMaxAge time.Duration

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the reference catalog cache",
	}
	cmd.AddCommand(catalogFetchCmd())
	cmd.AddCommand(catalogClearCmd())
	cmd.AddCommand(catalogPruneCmd())
	return cmd
}

func catalogFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Load every catalog for the current version into the cache",
		Args:  cobra.NoArgs,
		RunE:  runCatalogFetch,
	}
}

func runCatalogFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	p := pipeline.New(sess.cache, sess.sources, pipeline.Options{}, logger)
	catalogs, unavailable := p.Catalogs(ctx, nil)

	printCatalogs(ctx, cmd.OutOrStdout(), sess, catalogs, unavailable)
	if len(unavailable) > 0 {
		return fmt.Errorf("%d catalog(s) unavailable", len(unavailable))
	}
	return nil
}

func printCatalogs(ctx context.Context, w io.Writer, sess *session, catalogs map[catalog.Kind]*catalog.Catalog, unavailable []catalog.Kind) {
	version, err := sess.cache.Version(ctx)
	if err != nil {
		fmt.Fprintf(w, "Version unavailable: %v\n", err)
	} else {
		fmt.Fprintf(w, "Version %s\n", version)
	}
	for _, src := range sess.sources {
		if cat, ok := catalogs[src.Kind()]; ok {
			fmt.Fprintf(w, "  %-20s %d entries\n", src.Name(), cat.Len())
		}
	}
	for _, kind := range unavailable {
		fmt.Fprintf(w, "  %-20s unavailable\n", kind)
	}
}

func catalogClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached catalog and the last-seen version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.cache.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear catalog cache: %w", err)
			}
			cmd.Println("Catalog cache cleared.")
			return nil
		},
	}
}

func catalogPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached catalogs older than --max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			maxAge := pruneMaxAge
			if maxAge <= 0 {
				maxAge = cfg.Cache.PruneAfter
			}
			n, err := sess.cache.Prune(ctx, maxAge)
			if err != nil {
				return fmt.Errorf("failed to prune catalog cache: %w", err)
			}
			cmd.Printf("Removed %d catalog(s).\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "Age beyond which catalogs are removed (default from config)")
	return cmd
}
