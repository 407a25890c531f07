package main

import (
	"fmt"

	"nyaydarpan-backend/repository"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the corpus, embedding and review tables",
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	for i, stmt := range repository.SchemaStatements(a.cfg.EmbeddingDimensions) {
		if _, err := a.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	count, err := a.cases.Count(ctx)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"dimensions": a.cfg.EmbeddingDimensions,
		"cases":      count,
	}).Info("Schema ready")
	return nil
}
