package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"metagrid/internal/emit"
	"metagrid/internal/meta"
	"metagrid/internal/pipeline"
)

var (
	buildRaw   string
	buildOut   string
	buildWS    string
	buildSheet string
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [document.yaml]",
		Short: "Resolve compositions and emit the spreadsheet batch",
		Long: `Reads a composition document (YAML) and/or raw scraper records (JSON), resolves
every champion, item and trait against the reference catalogs, lays out the grid and
writes the spreadsheet batch to a file, stdout or a websocket bridge.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().StringVar(&buildRaw, "raw", "", "JSON file of raw scraper records")
	cmd.Flags().StringVar(&buildOut, "out", "-", "Output file for the batch, - for stdout")
	cmd.Flags().StringVar(&buildWS, "ws", "", "Websocket bridge URL, overrides the config")
	cmd.Flags().StringVar(&buildSheet, "spreadsheet", "", "Spreadsheet URL or id, overrides the config")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var in pipeline.Input
	if len(args) == 1 {
		doc, err := meta.LoadDocument(args[0])
		if err != nil {
			return err
		}
		in.Document = doc
	}
	if buildRaw != "" {
		raws, err := meta.LoadRaw(buildRaw)
		if err != nil {
			return err
		}
		in.Raw = raws
	}
	if in.Document == nil && in.Raw == nil {
		return fmt.Errorf("nothing to build: pass a document or --raw")
	}

	if buildSheet != "" {
		cfg.Output.SpreadsheetID = buildSheet
	}
	wsURL := cfg.Output.WebSocketURL
	if buildWS != "" {
		wsURL = buildWS
	}

	var sink emit.Sink
	switch {
	case wsURL != "":
		sink = emit.NewWebSocketSink(wsURL, cfg.Output.AckTimeout, logger)
	case buildOut == "-":
		sink = emit.NewJSONSink(cmd.OutOrStdout())
	default:
		sink = emit.NewFileSink(buildOut)
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	result, err := pipeline.New(sess.cache, sess.sources, pipelineOptions(cfg), logger).Run(ctx, in, sink)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "Build complete.")
	fmt.Fprintf(out, "  Run:          %s\n", result.RunID)
	fmt.Fprintf(out, "  Compositions: %d\n", len(result.Grid.Blocks))
	fmt.Fprintf(out, "  Grid:         %d rows x %d columns\n", result.Grid.RowCount(), result.Grid.Columns)
	if buildOut != "-" && wsURL == "" {
		fmt.Fprintf(out, "  Output:       %s\n", buildOut)
	}

	if len(result.Unavailable) > 0 {
		fmt.Fprintf(out, "\nUnavailable catalogs (%d):\n", len(result.Unavailable))
		for _, kind := range result.Unavailable {
			fmt.Fprintf(out, "  - %s\n", kind)
		}
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(out, "\nUnresolved names (%d):\n", len(result.Unresolved))
		for _, m := range result.Unresolved {
			fmt.Fprintf(out, "  - %-10s %s (x%d)\n", m.Kind, m.Name, m.Count)
		}
	}
	return nil
}
