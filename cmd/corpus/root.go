// corpus maintains the NyayDarpan case corpus: schema, feed ingestion,
// re-embedding and one-off Karma Checks.
//
// Usage:
//
//	corpus schema
//	corpus ingest [--feed=<storage path>] [--archive]
//	corpus reindex
//	corpus reviews [--feed=<storage path>] [--archive]
//	corpus check <company name> [--limit=<n>] [--context=<text>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Maintain the NyayDarpan case corpus",
	Long:  "corpus creates the database schema, loads scraped court records and reviews,\nre-embeds stale documents and runs one-off Karma Checks.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := godotenv.Load(); err != nil {
			_ = godotenv.Load("../../.env")
		}
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
