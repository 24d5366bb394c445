package alerts

import (
	"context"
	"time"

	"biosentinel/internal/types"
)

// Sink is the narrow persistence boundary for alert records. Save assigns
// ID and CreatedAt and returns the stored record; ListAll returns records
// newest first.
type Sink interface {
	Save(ctx context.Context, alert types.Alert) (*types.Alert, error)
	ListAll(ctx context.Context) ([]types.Alert, error)
}

// ArchiveStore is the additional surface the archiver needs from a sink.
// The file sink and the Postgres repository both implement it.
type ArchiveStore interface {
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]types.Alert, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}
