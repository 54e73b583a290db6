package main

import (
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/feed"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/spf13/cobra"
)

func newRebaselineCmd(c *cli) *cobra.Command {
	var (
		shards  []string
		workers int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "rebaseline",
		Short: "Recompute national and state ranks over stored rating history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			parsed, err := parseShards(shards)
			if err != nil {
				return c.fail(ctx, "parse shards", err)
			}

			report, err := c.app.RankBaseline.Run(ctx, usecase.RebaselineInput{
				Shards:  parsed,
				Workers: workers,
				DryRun:  dryRun,
			})
			if err != nil {
				return c.fail(ctx, "rebaseline pass", err)
			}
			c.app.Report(ctx, report)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringSliceVar(&shards, "shard", nil, "limit to YEAR:GENDER cohorts, e.g. 2012:boys (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 uses WORKER_COUNT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute ranks without writing them")
	return cmd
}

func newImportRatingsCmd(c *cli) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import-ratings",
		Short: "Record daily team ratings from a JSON-lines feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rows, err := readFeed(ctx, c, input, feed.ReadRatings)
			if err != nil {
				return c.fail(ctx, "read ratings", err)
			}

			report, err := c.app.RatingImport.Run(ctx, rows)
			if err != nil {
				return c.fail(ctx, "import-ratings pass", err)
			}
			c.app.Report(ctx, report)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON-lines file of rating rows")
	return cmd
}
