package main

import (
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/spf13/cobra"
)

func newDedupMatchesCmd(c *cli) *cobra.Command {
	var (
		from, to string
		workers  int
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "dedup-matches",
		Short: "Retire duplicate rows of the same real game inside a date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			fromDay, err := parseDay("from", from)
			if err != nil {
				return c.fail(ctx, "parse window", err)
			}
			toDay := time.Now().UTC()
			if to != "" {
				if toDay, err = parseDay("to", to); err != nil {
					return c.fail(ctx, "parse window", err)
				}
			}

			report, err := c.app.MatchDedup.Run(ctx, usecase.MatchDedupInput{
				From:    fromDay,
				To:      toDay,
				Workers: workers,
				DryRun:  dryRun,
			})
			if err != nil {
				return c.fail(ctx, "dedup-matches pass", err)
			}
			c.app.Report(ctx, report)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first match date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last match date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 uses WORKER_COUNT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without retiring them")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newDedupTeamsCmd(c *cli) *cobra.Command {
	var (
		in     usecase.TeamDedupInput
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "dedup-teams",
		Short: "Merge teams of a secondary platform into matching teams of the other platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report, pairs, err := c.app.TeamDedup.Run(ctx, in)
			if err != nil {
				return c.fail(ctx, "dedup-teams pass", err)
			}
			c.app.Report(ctx, report)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					Report usecase.PassReport      `json:"report"`
					Pairs  []usecase.DuplicatePair `json:"pairs"`
				}{report, pairs})
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&in.SecondaryPlatform, "secondary", "", "platform whose teams are checked for duplicates")
	cmd.Flags().StringVar(&in.PrimaryPlatform, "primary", "", "platform searched for survivors (default every other platform)")
	cmd.Flags().Float64Var(&in.Threshold, "threshold", 0, "similarity threshold (0 uses DEDUP_SIMILARITY_THRESHOLD)")
	cmd.Flags().IntVar(&in.CandidateLimit, "limit", 0, "candidates per team (0 uses RESOLVE_CANDIDATE_LIMIT)")
	cmd.Flags().IntVar(&in.Workers, "workers", 0, "worker count (0 uses WORKER_COUNT)")
	cmd.Flags().BoolVar(&in.DryRun, "dry-run", false, "list pairs without merging")
	cmd.Flags().BoolVar(&asJSON, "pairs", false, "print the accepted pairs with the report")
	_ = cmd.MarkFlagRequired("secondary")
	return cmd
}
