package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"biosentinel/internal/types"

	"github.com/klauspost/compress/zstd"
)

// ArchiveBatchLimit is the maximum number of alerts moved to cold storage
// per batch.
const ArchiveBatchLimit = 500

// Uploader abstracts the cold-storage upload for alert archival.
type Uploader interface {
	// UploadArchive uploads a compressed batch of alerts under the given
	// key.
	UploadArchive(ctx context.Context, key string, data []byte) error
}

// Archiver moves alerts older than the retention period out of the sink
// and into cold storage as zstd-compressed JSONL batches. Each batch is
// uploaded before its rows are deleted, so a failed upload leaves the
// alerts in place for the next run.
type Archiver struct {
	store    ArchiveStore
	uploader Uploader
	clock    types.Clock
	logger   *slog.Logger

	encoder *zstd.Encoder
}

// NewArchiver creates an Archiver.
func NewArchiver(store ArchiveStore, uploader Uploader, clock types.Clock, logger *slog.Logger) (*Archiver, error) {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	return &Archiver{
		store:    store,
		uploader: uploader,
		clock:    clock,
		logger:   logger,
		encoder:  encoder,
	}, nil
}

// Archive moves all alerts older than retention to cold storage and
// returns the count archived.
func (a *Archiver) Archive(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := a.clock.Now().Add(-retention)
	totalArchived := 0

	for {
		batch, err := a.store.ListCreatedBefore(ctx, cutoff, ArchiveBatchLimit)
		if err != nil {
			return totalArchived, fmt.Errorf("listing alerts for archival: %w", err)
		}

		if len(batch) == 0 {
			break
		}

		data, err := serializeAlertsJSONL(batch)
		if err != nil {
			return totalArchived, fmt.Errorf("serializing alert batch: %w", err)
		}
		compressed := a.encoder.EncodeAll(data, nil)

		key := fmt.Sprintf("alerts/%d/%02d/batch_%d.jsonl.zst",
			cutoff.Year(), cutoff.Month(), a.clock.Now().UnixNano())

		if err := a.uploader.UploadArchive(ctx, key, compressed); err != nil {
			return totalArchived, fmt.Errorf("uploading alert archive to %s: %w", key, err)
		}

		ids := make([]string, len(batch))
		for i, alert := range batch {
			ids[i] = alert.ID
		}

		deleted, err := a.store.DeleteByIDs(ctx, ids)
		if err != nil {
			return totalArchived, fmt.Errorf("deleting archived alerts: %w", err)
		}

		totalArchived += deleted

		a.logger.InfoContext(ctx, "archived alert batch",
			"batch_size", deleted,
			"key", key,
			"total_archived", totalArchived,
		)

		if len(batch) < ArchiveBatchLimit {
			break
		}
	}

	return totalArchived, nil
}

// serializeAlertsJSONL serializes alerts to newline-delimited JSON.
func serializeAlertsJSONL(batch []types.Alert) ([]byte, error) {
	var buf []byte
	for i, alert := range batch {
		line, err := json.Marshal(alert)
		if err != nil {
			return nil, fmt.Errorf("marshaling alert %s: %w", alert.ID, err)
		}
		buf = append(buf, line...)
		if i < len(batch)-1 {
			buf = append(buf, '\n')
		}
	}
	return buf, nil
}
