package main

import (
	"github.com/spf13/cobra"
)

func newMergeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "merge SURVIVOR_ID LOSER_ID",
		Short: "Merge one team into another by hand",
		Long: `Re-points the loser's matches and aliases to the survivor and tombstones
the loser. Running it again for the same pair is a no-op.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outcome, err := c.app.Merges.Merge(ctx, args[0], args[1])
			if err != nil {
				return c.fail(ctx, "merge teams", err)
			}
			c.logger.InfoContext(ctx, "merge finished",
				"survivor", outcome.SurvivorID,
				"loser", outcome.LoserID,
				"merged", outcome.Merged,
				"matches_repointed", outcome.Result.MatchesRepointed,
				"matches_retired", outcome.Result.MatchesRetired,
				"aliases_moved", outcome.Result.AliasesMoved,
			)
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}
}
