package tasks

import (
	"net/http"

	"github.com/hawthornlabs/salesdesk-backend/api/responses"
	"github.com/hawthornlabs/salesdesk-backend/api/validators"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
)

type completionWriteRequest struct {
	TenantID    string `json:"tenant_id" validate:"required,max=64"`
	TaskID      string `json:"task_id" validate:"required,max=128"`
	TaskType    string `json:"task_type" validate:"required,oneof=purchase cart search repeat_visit performance"`
	Completed   bool   `json:"completed"`
	Notes       string `json:"notes" validate:"max=2000"`
	CompletedBy string `json:"completed_by" validate:"max=128"`
}

func (req completionWriteRequest) toParams() tracking.UpsertParams {
	return tracking.UpsertParams{
		TenantID:    validators.SanitizeString(req.TenantID, 64),
		TaskID:      validators.SanitizeString(req.TaskID, 128),
		TaskType:    validators.SanitizeString(req.TaskType, 32),
		Completed:   req.Completed,
		Notes:       validators.SanitizeString(req.Notes, 2000),
		CompletedBy: validators.SanitizeString(req.CompletedBy, 128),
	}
}

type completionBatchItem struct {
	TaskID      string `json:"task_id" validate:"required,max=128"`
	TaskType    string `json:"task_type" validate:"required,oneof=purchase cart search repeat_visit performance"`
	Completed   bool   `json:"completed"`
	Notes       string `json:"notes" validate:"max=2000"`
	CompletedBy string `json:"completed_by" validate:"max=128"`
}

type completionBatchRequest struct {
	TenantID string                `json:"tenant_id" validate:"required,max=64"`
	Items    []completionBatchItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// GetCompletion returns the tracking record for one task, or the defaults
// when the task was never written.
func GetCompletion(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		q := r.URL.Query()
		status, err := svc.Get(
			r.Context(),
			validators.SanitizeString(q.Get("tenant_id"), 64),
			validators.SanitizeString(q.Get("task_id"), 128),
			validators.SanitizeString(q.Get("task_type"), 32),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// UpsertCompletion toggles one task's completion state.
func UpsertCompletion(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req completionWriteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Upsert(r.Context(), req.toParams())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// BatchUpsertCompletion toggles many tasks in one call.
func BatchUpsertCompletion(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var req completionBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]tracking.UpsertParams, len(req.Items))
		for i, item := range req.Items {
			items[i] = tracking.UpsertParams{
				TaskID:      validators.SanitizeString(item.TaskID, 128),
				TaskType:    validators.SanitizeString(item.TaskType, 32),
				Completed:   item.Completed,
				Notes:       validators.SanitizeString(item.Notes, 2000),
				CompletedBy: validators.SanitizeString(item.CompletedBy, 128),
			}
		}

		updated, err := svc.BatchUpsert(r.Context(), validators.SanitizeString(req.TenantID, 64), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": updated})
	}
}
