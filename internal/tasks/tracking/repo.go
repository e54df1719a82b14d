package tracking

import (
	"context"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// The overlay write is a single conditional upsert, never read-modify-write:
// concurrent completions of the same task resolve at the storage layer with
// last write winning. completed_at is set only on a false->true transition,
// cleared on any transition to false, and left untouched by repeated true
// writes so the original completion time survives idempotent re-submits.
const upsertSQL = `
INSERT INTO task_tracking
    (tenant_id, task_id, task_type, completed, notes, completed_at, completed_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tenant_id, task_id, task_type) DO UPDATE SET
    completed = excluded.completed,
    notes = excluded.notes,
    completed_by = CASE
        WHEN excluded.completed THEN excluded.completed_by
        ELSE task_tracking.completed_by
    END,
    completed_at = CASE
        WHEN excluded.completed AND NOT task_tracking.completed THEN excluded.completed_at
        WHEN NOT excluded.completed THEN NULL
        ELSE task_tracking.completed_at
    END,
    updated_at = excluded.updated_at
`

// Repository persists the completion overlay.
type Repository struct {
	repo.Base
}

// NewRepository builds a tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{Base: repo.NewBase(db, timeout)}
}

// Get loads one overlay record; gorm.ErrRecordNotFound when none exists yet.
func (r *Repository) Get(ctx context.Context, tenantID, taskID, taskType string) (*models.TaskTracking, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	var record models.TaskTracking
	err := r.DB(ctx).
		Where("tenant_id = ? AND task_id = ? AND task_type = ?", tenantID, taskID, taskType).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetBatch loads the overlay records for a page window's task ids, keyed by
// task id. Missing ids are simply absent from the map.
func (r *Repository) GetBatch(ctx context.Context, tenantID, taskType string, taskIDs []string) (map[string]models.TaskTracking, error) {
	out := make(map[string]models.TaskTracking, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	ctx, cancel := r.Bound(ctx)
	defer cancel()

	var rows []models.TaskTracking
	err := r.DB(ctx).
		Where("tenant_id = ? AND task_type = ? AND task_id IN ?", tenantID, taskType, taskIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TaskID] = row
	}
	return out, nil
}

// Upsert atomically inserts or updates one overlay record.
func (r *Repository) Upsert(ctx context.Context, record models.TaskTracking) error {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	return r.DB(ctx).Exec(upsertSQL,
		record.TenantID,
		record.TaskID,
		record.TaskType,
		record.Completed,
		record.Notes,
		record.CompletedAt,
		record.CompletedBy,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}
