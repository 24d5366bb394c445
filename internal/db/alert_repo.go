package db

import (
	"context"
	"time"

	"biosentinel/internal/types"

	"github.com/jackc/pgx/v5"
)

// AlertRepository provides data access for the alerts table. It satisfies
// both the alert sink interface (Save, ListAll) and the archive store
// interface (ListCreatedBefore, DeleteByIDs).
type AlertRepository struct {
	db DBTX
}

// NewAlertRepository creates a new AlertRepository backed by the given
// database connection (pool or transaction).
func NewAlertRepository(db DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, type, level, icon, title, description, time_label,
	 location, confidence, source, observations, trend_ratio, created_at`

// Save inserts a new alert. ID and CreatedAt are generated by the
// database and returned on the stored record.
func (r *AlertRepository) Save(ctx context.Context, alert types.Alert) (*types.Alert, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO alerts
		 (type, level, icon, title, description, time_label, location,
		  confidence, source, observations, trend_ratio)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		alert.Type,
		string(alert.Level),
		alert.Icon,
		alert.Title,
		alert.Description,
		alert.Time,
		alert.Location,
		alert.Confidence,
		alert.Source,
		alert.Observations,
		alert.TrendRatio,
	)
	if err := row.Scan(&alert.ID, &alert.CreatedAt); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to save alert", err)
	}
	return &alert, nil
}

// ListAll returns all alerts, newest first.
func (r *AlertRepository) ListAll(ctx context.Context) ([]types.Alert, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+alertColumns+`
		 FROM alerts
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list alerts", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListCreatedBefore returns up to limit alerts created before the cutoff,
// oldest first. Used by the archiver.
func (r *AlertRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]types.Alert, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+alertColumns+`
		 FROM alerts
		 WHERE created_at < $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list alerts for archival", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// DeleteByIDs removes alerts by ID and returns the number removed.
func (r *AlertRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM alerts WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete archived alerts", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanAlerts(rows pgx.Rows) ([]types.Alert, error) {
	alerts := []types.Alert{}
	for rows.Next() {
		var a types.Alert
		var level string
		if err := rows.Scan(
			&a.ID,
			&a.Type,
			&level,
			&a.Icon,
			&a.Title,
			&a.Description,
			&a.Time,
			&a.Location,
			&a.Confidence,
			&a.Source,
			&a.Observations,
			&a.TrendRatio,
			&a.CreatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert row", err)
		}
		a.Level = types.RiskLevel(level)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read alert rows", err)
	}
	return alerts, nil
}
