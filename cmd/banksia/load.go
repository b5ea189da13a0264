package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Gobusters/ectolinq"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/banksia/internal/repositories/sourcerecord"
	"github.com/Ramsey-B/banksia/pkg/models"
)

const loadChunkSize = 500

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load source records from JSON files into the database",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "crawl <file>",
			Short: "Upsert crawl records from a JSON array",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return loadFile(cmd.Context(), args[0], func(ctx context.Context, repo *sourcerecord.Repository, r io.Reader) (int, error) {
					records, err := decodeCrawlRecords(r)
					if err != nil {
						return 0, err
					}
					return upsertInChunks(ctx, records, repo.UpsertCrawlRecords)
				})
			},
		},
		&cobra.Command{
			Use:   "registry <file>",
			Short: "Upsert registry records from a JSON array",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return loadFile(cmd.Context(), args[0], func(ctx context.Context, repo *sourcerecord.Repository, r io.Reader) (int, error) {
					records, err := decodeRegistryRecords(r)
					if err != nil {
						return 0, err
					}
					return upsertInChunks(ctx, records, repo.UpsertRegistryRecords)
				})
			},
		},
	)
	return cmd
}

type loader func(ctx context.Context, repo *sourcerecord.Repository, r io.Reader) (int, error)

func loadFile(ctx context.Context, path string, load loader) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(context.WithoutCancel(ctx)) }()

	if err := a.connectDatabase(ctx); err != nil {
		return err
	}

	count, err := load(ctx, sourcerecord.NewRepository(a.db, a.logger), f)
	if err != nil {
		return err
	}
	a.logger.WithContext(ctx).WithFields(map[string]any{"file": path, "count": count}).Info("Loaded records")
	return nil
}

func decodeCrawlRecords(r io.Reader) ([]models.CrawlRecord, error) {
	var records []models.CrawlRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode crawl records: %w", err)
	}
	return ectolinq.Filter(records, func(rec models.CrawlRecord) bool {
		return rec.ID != "" && rec.Name != ""
	}), nil
}

// decodeRegistryRecords reads registry records and maps raw statuses such as "ACT" onto the known ones
func decodeRegistryRecords(r io.Reader) ([]models.RegistryRecord, error) {
	var records []models.RegistryRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode registry records: %w", err)
	}
	for i := range records {
		records[i].Status = models.ParseRegistryStatus(string(records[i].Status))
	}
	return records, nil
}

func upsertInChunks[T any](ctx context.Context, records []T, upsert func(context.Context, []T) (int, error)) (int, error) {
	total := 0
	for _, chunk := range ectolinq.Chunk(records, loadChunkSize) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := upsert(ctx, chunk)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
