// Package main is the entrypoint for the alert archiver.
//
// The archiver is a one-shot maintenance job, intended to be run from cron
// or a container scheduler. It moves alerts older than the retention window
// out of the hot sink into zstd-compressed JSONL batches in S3 Glacier,
// then deletes the archived rows. Batches are uploaded before deletion so
// a failed run never loses records.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"biosentinel/internal/alerts"
	"biosentinel/internal/config"
	"biosentinel/internal/db"
	"biosentinel/internal/types"
)

// runTimeout bounds a full archival pass. Generous because a backlog of
// many batches is drained in a single run.
const runTimeout = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("job", "alert-archiver")

	if cfg.Archive.Bucket == "" {
		logger.Info("ARCHIVE_BUCKET not set, archival disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	store, pool, err := newArchiveStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Archive.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO in local dev needs a custom endpoint and path-style keys.
		if cfg.Archive.EndpointURL != "" {
			o.BaseEndpoint = &cfg.Archive.EndpointURL
			o.UsePathStyle = true
		}
	})
	uploader := alerts.NewS3Uploader(s3Client, cfg.Archive.Bucket)

	archiver, err := alerts.NewArchiver(store, uploader, types.RealClock{}, logger)
	if err != nil {
		return fmt.Errorf("creating archiver: %w", err)
	}

	archived, err := archiver.Archive(ctx, cfg.Archive.Retention)
	if err != nil {
		return fmt.Errorf("archival pass: %w", err)
	}

	logger.Info("archival pass complete",
		"archived", archived,
		"retention", cfg.Archive.Retention.String(),
	)
	return nil
}

// newArchiveStore selects the alert store backing the archiver: Postgres
// when DATABASE_URL is set, otherwise the local JSON file used by the API
// in local mode.
func newArchiveStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (alerts.ArchiveStore, *pgxpool.Pool, error) {
	if cfg.Database.URL.Unmask() != "" {
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return db.NewAlertRepository(pool), pool, nil
	}

	sink, err := alerts.NewFileSink(cfg.Alerts.StorePath, types.RealClock{}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening alert store: %w", err)
	}
	return sink, nil, nil
}
