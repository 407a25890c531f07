package main

import (
	"github.com/spf13/cobra"

	"nyaydarpan-backend/ingest"
)

var reindexBatch int

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Embed documents that are missing or carry a stale model version",
	RunE:  runReindex,
}

func init() {
	reindexCmd.Flags().IntVar(&reindexBatch, "batch", 100, "Documents loaded per batch")
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline := ingest.NewPipeline(a.cases, a.index(), ingest.PipelineWithBatchSize(reindexBatch))
	report, err := pipeline.Reindex(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
