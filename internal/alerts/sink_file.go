package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"biosentinel/internal/types"

	"github.com/google/uuid"
)

// FileSink persists alerts as a single JSON array on disk, newest first.
// It serves local and demo deployments where no database is configured.
// Writes are serialized by a mutex; the sink is not safe against multiple
// processes sharing the file.
type FileSink struct {
	path   string
	clock  types.Clock
	logger *slog.Logger

	mu sync.Mutex
}

// NewFileSink creates a FileSink and ensures the parent directory exists.
func NewFileSink(path string, clock types.Clock, logger *slog.Logger) (*FileSink, error) {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating alert store directory %s: %w", dir, err)
		}
	}

	return &FileSink{
		path:   path,
		clock:  clock,
		logger: logger,
	}, nil
}

// Save assigns an ID and CreatedAt, prepends the alert to the stored
// list, and rewrites the file.
func (s *FileSink) Save(ctx context.Context, alert types.Alert) (*types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load()
	if err != nil {
		return nil, err
	}

	alert.ID = uuid.NewString()
	alert.CreatedAt = s.clock.Now()

	stored = append([]types.Alert{alert}, stored...)

	if err := s.write(stored); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "alert saved",
		"alert_id", alert.ID,
		"type", alert.Type,
		"level", alert.Level,
	)

	return &alert, nil
}

// ListAll returns all stored alerts, newest first. A missing file reads
// as an empty list.
func (s *FileSink) ListAll(ctx context.Context) ([]types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// ListCreatedBefore returns up to limit alerts created before the cutoff,
// oldest portion of the file first.
func (s *FileSink) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load()
	if err != nil {
		return nil, err
	}

	var old []types.Alert
	// The file is newest first, so walk it backwards.
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i].CreatedAt.Before(cutoff) {
			old = append(old, stored[i])
			if limit > 0 && len(old) >= limit {
				break
			}
		}
	}
	return old, nil
}

// DeleteByIDs removes the given alerts from the file and returns the
// number removed.
func (s *FileSink) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load()
	if err != nil {
		return 0, err
	}

	before := len(stored)
	stored = slices.DeleteFunc(stored, func(a types.Alert) bool {
		return slices.Contains(ids, a.ID)
	})

	if err := s.write(stored); err != nil {
		return 0, err
	}

	return before - len(stored), nil
}

// load reads the stored alert list. Callers must hold the mutex.
func (s *FileSink) load() ([]types.Alert, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.Alert{}, nil
		}
		return nil, types.NewAppError(
			types.ErrCodeInternalDB,
			"failed to read alert store",
			err,
		)
	}

	if len(data) == 0 {
		return []types.Alert{}, nil
	}

	var stored []types.Alert
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalDB,
			"alert store is corrupt",
			err,
		)
	}
	return stored, nil
}

// write replaces the file atomically via a temp file and rename. Callers
// must hold the mutex.
func (s *FileSink) write(stored []types.Alert) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to serialize alert store",
			err,
		)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return types.NewAppError(
			types.ErrCodeInternalDB,
			"failed to write alert store",
			err,
		)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return types.NewAppError(
			types.ErrCodeInternalDB,
			"failed to replace alert store",
			err,
		)
	}
	return nil
}

// Compile-time interface compliance checks.
var (
	_ Sink         = (*FileSink)(nil)
	_ ArchiveStore = (*FileSink)(nil)
)
