package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Status is the overlay state echoed back to callers. A task that was never
// written reports the defaults rather than not-found.
type Status struct {
	TaskID      string     `json:"task_id"`
	TaskType    string     `json:"task_type"`
	Completed   bool       `json:"completed"`
	Notes       string     `json:"notes"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// UpsertParams is one completion write.
type UpsertParams struct {
	TenantID    string
	TaskID      string
	TaskType    string
	Completed   bool
	Notes       string
	CompletedBy string
}

// Service exposes the completion overlay operations.
type Service interface {
	Get(ctx context.Context, tenantID, taskID, taskType string) (*Status, error)
	Upsert(ctx context.Context, params UpsertParams) (*Status, error)
	BatchUpsert(ctx context.Context, tenantID string, items []UpsertParams) (int, error)
	Overlay(ctx context.Context, tenantID string, category tasks.Category, taskIDs []string) (map[string]tasks.Completion, error)
}

type service struct {
	repo  *Repository
	stats *metrics.TaskMetrics
	now   func() time.Time
}

// NewService builds the tracking service.
func NewService(repo *Repository, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("tracking repository is required")
	}
	return &service{
		repo:  repo,
		stats: stats,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Get(ctx context.Context, tenantID, taskID, taskType string) (*Status, error) {
	if err := validateKey(tenantID, taskID, taskType); err != nil {
		return nil, err
	}

	record, err := s.repo.Get(ctx, tenantID, taskID, taskType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Status{TaskID: taskID, TaskType: taskType}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task completion")
	}
	return toStatus(record), nil
}

func (s *service) Upsert(ctx context.Context, params UpsertParams) (*Status, error) {
	if err := validateKey(params.TenantID, params.TaskID, params.TaskType); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, s.toRecord(params)); err != nil {
		s.stats.IncCompletionWrite("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write task completion")
	}
	s.stats.IncCompletionWrite("ok")

	return s.Get(ctx, params.TenantID, params.TaskID, params.TaskType)
}

func (s *service) BatchUpsert(ctx context.Context, tenantID string, items []UpsertParams) (int, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}
	if len(items) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "items must not be empty")
	}

	updated := 0
	var errs error
	for _, item := range items {
		item.TenantID = tenantID
		if err := validateKey(item.TenantID, item.TaskID, item.TaskType); err != nil {
			return updated, err
		}
		if err := s.repo.Upsert(ctx, s.toRecord(item)); err != nil {
			s.stats.IncCompletionWrite("error")
			errs = multierr.Append(errs, err)
			continue
		}
		s.stats.IncCompletionWrite("ok")
		updated++
	}
	if errs != nil {
		return updated, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "batch write task completion")
	}
	return updated, nil
}

func (s *service) Overlay(ctx context.Context, tenantID string, category tasks.Category, taskIDs []string) (map[string]tasks.Completion, error) {
	rows, err := s.repo.GetBatch(ctx, tenantID, string(category), taskIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completion overlay")
	}
	out := make(map[string]tasks.Completion, len(rows))
	for id, row := range rows {
		out[id] = tasks.Completion{
			Completed:   row.Completed,
			Notes:       row.Notes,
			CompletedAt: row.CompletedAt,
			CompletedBy: row.CompletedBy,
		}
	}
	return out, nil
}

func (s *service) toRecord(params UpsertParams) models.TaskTracking {
	now := s.now()
	record := models.TaskTracking{
		TenantID:  params.TenantID,
		TaskID:    params.TaskID,
		TaskType:  params.TaskType,
		Completed: params.Completed,
		Notes:     params.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.Completed {
		record.CompletedBy = params.CompletedBy
		completedAt := now
		record.CompletedAt = &completedAt
	}
	return record
}

func validateKey(tenantID, taskID, taskType string) error {
	if strings.TrimSpace(tenantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}
	if strings.TrimSpace(taskID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "task_id is required")
	}
	if !tasks.Category(taskType).Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "task_type must be one of purchase, cart, search, repeat_visit, performance")
	}
	return nil
}

func toStatus(record *models.TaskTracking) *Status {
	updatedAt := record.UpdatedAt
	return &Status{
		TaskID:      record.TaskID,
		TaskType:    record.TaskType,
		Completed:   record.Completed,
		Notes:       record.Notes,
		CompletedAt: record.CompletedAt,
		CompletedBy: record.CompletedBy,
		UpdatedAt:   &updatedAt,
	}
}
