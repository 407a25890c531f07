package main

import (
	"nyaydarpan-backend/ingest"
	"nyaydarpan-backend/storage"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

var reviewsFlags struct {
	feed    string
	archive bool
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Load a company review feed",
	RunE:  runReviews,
}

func init() {
	f := reviewsCmd.Flags()
	f.StringVar(&reviewsFlags.feed, "feed", "", "Storage path of the feed (default: newest incoming/reviews_*.json)")
	f.BoolVar(&reviewsFlags.archive, "archive", false, "Move the feed to processed/ after a successful run")
}

func runReviews(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := storage.NewStorageFromEnv()
	if err != nil {
		return err
	}
	feedPath, rc, err := openFeed(ctx, store, reviewsFlags.feed, "reviews_*.json")
	if err != nil {
		return err
	}
	reviews, stats, err := ingest.ParseReviews(rc)
	rc.Close()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"records":    stats.Records,
		"duplicates": stats.Duplicates,
		"skipped":    stats.Skipped,
	}).Info("Review feed parsed")

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline := ingest.NewPipeline(a.cases, nil, ingest.PipelineWithReviews(a.reviews))
	report, err := pipeline.LoadReviews(ctx, reviews)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if reviewsFlags.archive && len(report.Failures) == 0 {
		return archiveFeed(ctx, store, feedPath)
	}
	return nil
}
