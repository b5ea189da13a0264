package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/utils"
)

func newRunCmd() *cobra.Command {
	var req models.MatchJobRequest

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one matching pass in the foreground and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), req)
		},
	}

	cmd.Flags().IntVar(&req.CrawlLimit, "crawl-limit", 0, "Maximum crawl records to match (0 for all)")
	cmd.Flags().IntVar(&req.RegistryLimit, "registry-limit", 0, "Maximum registry records to load (0 for all)")
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", 0, "Records per batch (0 for the configured size)")
	return cmd
}

func runOnce(ctx context.Context, req models.MatchJobRequest) error {
	req, err := utils.Validate(req)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(context.WithoutCancel(ctx)) }()

	if err := a.connectDatabase(ctx); err != nil {
		return err
	}
	if err := a.connectRedis(ctx); err != nil {
		a.logger.WithError(err).Warn("Continuing without the embedding cache")
	}
	a.openProducer()

	p, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}

	job := models.MatchJob{ID: uuid.New().String(), Request: req}
	ctx = reqcontext.SetJobID(ctx, job.ID)
	log := a.logger.WithContext(ctx)

	summary, err := p.RunJob(ctx, job, func(ctx context.Context, summary models.RunSummary) {
		log.WithFields(map[string]any{
			"processed": summary.RecordsProcessed,
			"total":     summary.RecordsTotal,
		}).Info("Batch complete")
	})
	if err != nil {
		log.WithError(err).Error("Matching run failed")
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
