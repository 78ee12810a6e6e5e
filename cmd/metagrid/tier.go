package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func tierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier AVG_PLACE...",
		Short: "Classify average placements into meta tiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				avg, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid average placement %q: %w", arg, err)
				}
				t, err := cfg.Tiers.Classify(avg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, t)
			}
			return nil
		},
	}
}
