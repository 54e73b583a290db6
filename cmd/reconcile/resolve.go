package main

import (
	"context"
	"fmt"
	"io"

	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/feed"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/spf13/cobra"
)

func newResolveCmd(c *cli) *cobra.Command {
	var (
		input   string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve raw match records to canonical teams and upsert their matches",
		Long: `Reads JSON-lines raw records (one object per line, "-" for stdin),
resolves both team names of every record and upserts the match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			records, err := readFeed(ctx, c, input, feed.ReadRecords)
			if err != nil {
				return c.fail(ctx, "read raw records", err)
			}

			report, err := c.app.Ingest.Run(ctx, usecase.IngestInput{Records: records, Workers: workers})
			if err != nil {
				return c.fail(ctx, "resolve pass", err)
			}
			c.app.Report(ctx, report)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON-lines file of raw records")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 uses WORKER_COUNT)")
	return cmd
}

// readFeed opens path, decodes it with read and logs every malformed line.
func readFeed[T any](ctx context.Context, c *cli, path string, read func(context.Context, io.Reader) ([]T, []feed.LineError, error)) ([]T, error) {
	r, err := feed.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	items, bad, err := read(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, lineErr := range bad {
		c.logger.WarnContext(ctx, "feed line skipped", "input", path, "line", lineErr.Line, "error", lineErr.Err)
	}
	c.logger.InfoContext(ctx, "feed read", "input", path, "items", len(items), "skipped_lines", len(bad))
	return items, nil
}
