package repeatvisit

import (
	"context"
	"errors"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/metrics"
	"github.com/hawthornlabs/salesdesk-backend/pkg/pagination"
)

// Task is the repeat-visit variant.
type Task struct {
	tasks.Envelope
	PageCount int       `json:"page_count"`
	ViewCount int       `json:"view_count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Params selects and paginates repeat-visit tasks.
type Params struct {
	Filter events.Filter
	Query  string
	Page   pagination.Params
}

// ListResult is one page of repeat-visit tasks.
type ListResult struct {
	Items []Task `json:"items"`
	pagination.Window
}

// Service derives repeat-visit tasks.
type Service interface {
	List(ctx context.Context, params Params) (*ListResult, error)
	Count(ctx context.Context, filter events.Filter) (int64, error)
}

type service struct {
	repo       *Repository
	identities tasks.IdentityResolver
	overlay    tasks.OverlayReader
	stats      *metrics.TaskMetrics
	now        func() time.Time
}

// NewService builds the repeat-visit classifier service.
func NewService(repo *Repository, identities tasks.IdentityResolver, overlay tasks.OverlayReader, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("repeat-visit repository is required")
	}
	if identities == nil {
		return nil, errors.New("identity resolver is required")
	}
	if overlay == nil {
		return nil, errors.New("overlay reader is required")
	}
	return &service{
		repo:       repo,
		identities: identities,
		overlay:    overlay,
		stats:      stats,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params Params) (*ListResult, error) {
	if err := params.Filter.Validate(); err != nil {
		return nil, err
	}
	page := params.Page.Normalize()

	started := s.now()
	total, err := s.repo.Count(ctx, params.Filter, params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count repeat-visit tasks")
	}

	rows, err := s.repo.List(ctx, params.Filter, params.Query, page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list repeat-visit tasks")
	}
	s.stats.ObserveQuery("repeat_visit", s.now().Sub(started))

	items, err := s.buildTasks(ctx, params.Filter.TenantID, rows)
	if err != nil {
		return nil, err
	}
	s.stats.AddListed("repeat_visit", len(items))

	return &ListResult{
		Items:  items,
		Window: pagination.NewWindow(page, total),
	}, nil
}

func (s *service) Count(ctx context.Context, filter events.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	total, err := s.repo.Count(ctx, filter, "")
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count repeat-visit tasks")
	}
	return total, nil
}

func (s *service) buildTasks(ctx context.Context, tenantID string, rows []Row) ([]Task, error) {
	keys := make([]tasks.IdentityKey, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = tasks.IdentityKey{
			WebUserID:  deref(row.WebUserID),
			CustomerID: deref(row.CustomerID),
		}
		ids[i] = tasks.ID(tenantID, tasks.CategoryRepeatVisit, row.SessionID)
	}

	customers, err := s.identities.Resolve(ctx, tenantID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve repeat-visit identities")
	}
	overlay, err := s.overlay.Overlay(ctx, tenantID, tasks.CategoryRepeatVisit, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Task, len(rows))
	for i, row := range rows {
		task := Task{
			Envelope: tasks.Envelope{
				ID:         ids[i],
				Category:   tasks.CategoryRepeatVisit,
				Priority:   tasks.RepeatVisitPriority(row.PageCount),
				SessionID:  row.SessionID,
				LocationID: row.BranchID,
				Customer:   customers[i],
				CreatedAt:  tasks.EventTime(row.LastSeen),
			},
			PageCount: row.PageCount,
			ViewCount: row.ViewCount,
			FirstSeen: tasks.EventTime(row.FirstSeen),
			LastSeen:  tasks.EventTime(row.LastSeen),
		}
		if completion, ok := overlay[ids[i]]; ok {
			c := completion
			task.Completion = &c
		}
		items[i] = task
	}
	return items, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
