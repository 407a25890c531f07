package main

import (
	"time"

	"nyaydarpan-backend/ingest"
	"nyaydarpan-backend/storage"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

var ingestFlags struct {
	feed    string
	archive bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a scraped case feed into the corpus and index it",
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.feed, "feed", "", "Storage path of the feed (default: newest incoming/scraped_cases_*.json)")
	f.BoolVar(&ingestFlags.archive, "archive", false, "Move the feed to processed/ after a successful run")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := storage.NewStorageFromEnv()
	if err != nil {
		return err
	}
	feedPath, rc, err := openFeed(ctx, store, ingestFlags.feed, "scraped_cases_*.json")
	if err != nil {
		return err
	}
	docs, stats, err := ingest.ParseFeed(rc, time.Now())
	rc.Close()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"records":    stats.Records,
		"duplicates": stats.Duplicates,
		"skipped":    stats.Skipped,
	}).Info("Feed parsed")

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline := ingest.NewPipeline(a.cases, a.index())
	report, err := pipeline.Run(ctx, docs)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if ingestFlags.archive && len(report.Failures) == 0 {
		return archiveFeed(ctx, store, feedPath)
	}
	return nil
}
