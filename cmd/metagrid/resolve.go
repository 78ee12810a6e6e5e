package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"metagrid/internal/catalog"
	"metagrid/internal/pipeline"
	"metagrid/internal/resolve"
)

var resolveKind string

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Resolve names against a catalog and print their image URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runResolve,
	}
	cmd.Flags().StringVar(&resolveKind, "kind", string(catalog.KindItems), "Catalog kind: characters, champions, items or traits")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	kind := catalog.Kind(resolveKind)
	switch kind {
	case catalog.KindCharacters, catalog.KindChampions, catalog.KindItems, catalog.KindTraits:
	default:
		return fmt.Errorf("unknown catalog kind %q", resolveKind)
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	p := pipeline.New(sess.cache, sess.sources, pipeline.Options{}, logger)
	catalogs, _ := p.Catalogs(ctx, nil)
	r := resolve.New(catalogs, resolve.Options{
		Threshold: cfg.Resolve.Threshold,
		Aliases:   aliases(cfg),
	}, logger)

	for _, name := range args {
		url := r.Image(kind, name)
		if url == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tunresolved\n", name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, url)
	}
	if n := r.Report().Len(); n > 0 {
		return fmt.Errorf("%d name(s) unresolved", n)
	}
	return nil
}
