package performance

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

// Kinds of performance tasks.
const (
	KindPageAlert     = "page_bounce"
	KindSessionBounce = "session_bounce"
)

// Task is the performance variant. Page alerts aggregate many sessions and
// carry no customer; session bounces name one session and resolve one.
type Task struct {
	tasks.Envelope
	Kind         string    `json:"kind"`
	PageTitle    string    `json:"page_title"`
	PageLocation string    `json:"page_location"`
	BounceCount  int       `json:"bounce_count,omitempty"`
	LastSeen     time.Time `json:"last_seen"`
}

// Params selects and paginates performance tasks.
type Params struct {
	Filter events.Filter
	Query  string
	Page   pagination.Params
}

// ListResult is one page of performance tasks.
type ListResult struct {
	Items []Task `json:"items"`
	pagination.Window
}

// Service derives performance tasks.
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

// NewService builds the performance classifier service.
func NewService(repo *Repository, identities tasks.IdentityResolver, overlay tasks.OverlayReader, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("performance repository is required")
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

// List pages across the two rule outputs as one ordered sequence: every page
// alert first (worst bounce count leading), then every session bounce, newest
// first. The split point is derived from the two totals so a window that
// straddles it pulls the tail of one segment and the head of the next.
func (s *service) List(ctx context.Context, params Params) (*ListResult, error) {
	if err := params.Filter.Validate(); err != nil {
		return nil, err
	}
	page := params.Page.Normalize()

	started := s.now()
	pageTotal, err := s.repo.CountPages(ctx, params.Filter, params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bounce pages")
	}
	sessionTotal, err := s.repo.CountSessions(ctx, params.Filter, params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bounce sessions")
	}
	total := pageTotal + sessionTotal

	offset := int64(page.Offset())
	limit := int64(page.Limit)

	var pageRows []PageRow
	if offset < pageTotal {
		take := pageTotal - offset
		if take > limit {
			take = limit
		}
		pageRows, err = s.repo.ListPages(ctx, params.Filter, params.Query, int(take), int(offset))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bounce pages")
		}
	}

	var sessionRows []SessionRow
	if remaining := limit - int64(len(pageRows)); remaining > 0 && offset+limit > pageTotal {
		sessionOffset := offset - pageTotal
		if sessionOffset < 0 {
			sessionOffset = 0
		}
		sessionRows, err = s.repo.ListSessions(ctx, params.Filter, params.Query, int(remaining), int(sessionOffset))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bounce sessions")
		}
	}
	s.stats.ObserveQuery("performance", s.now().Sub(started))

	items, err := s.buildTasks(ctx, params.Filter.TenantID, pageRows, sessionRows)
	if err != nil {
		return nil, err
	}
	s.stats.AddListed("performance", len(items))

	return &ListResult{
		Items:  items,
		Window: pagination.NewWindow(page, total),
	}, nil
}

func (s *service) Count(ctx context.Context, filter events.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	pageTotal, err := s.repo.CountPages(ctx, filter, "")
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bounce pages")
	}
	sessionTotal, err := s.repo.CountSessions(ctx, filter, "")
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bounce sessions")
	}
	return pageTotal + sessionTotal, nil
}

func (s *service) buildTasks(ctx context.Context, tenantID string, pageRows []PageRow, sessionRows []SessionRow) ([]Task, error) {
	items := make([]Task, 0, len(pageRows)+len(sessionRows))
	ids := make([]string, 0, len(pageRows)+len(sessionRows))

	for _, row := range pageRows {
		id := tasks.ID(tenantID, tasks.CategoryPerformance, "page|"+row.PageLocation)
		ids = append(ids, id)
		lastSeen := tasks.EventTime(row.LastSeen)
		items = append(items, Task{
			Envelope: tasks.Envelope{
				ID:         id,
				Category:   tasks.CategoryPerformance,
				Priority:   tasks.BouncePagePriority(row.BounceCount),
				LocationID: row.BranchID,
				CreatedAt:  lastSeen,
			},
			Kind:         KindPageAlert,
			PageTitle:    row.PageTitle,
			PageLocation: row.PageLocation,
			BounceCount:  row.BounceCount,
			LastSeen:     lastSeen,
		})
	}

	keys := make([]tasks.IdentityKey, len(sessionRows))
	for i, row := range sessionRows {
		keys[i] = tasks.IdentityKey{
			WebUserID:  deref(row.WebUserID),
			CustomerID: deref(row.CustomerID),
		}
	}
	customers, err := s.identities.Resolve(ctx, tenantID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve bounce identities")
	}

	for i, row := range sessionRows {
		id := tasks.ID(tenantID, tasks.CategoryPerformance, "session|"+row.SessionID)
		ids = append(ids, id)
		seen := tasks.EventTime(row.EventTimestamp)
		items = append(items, Task{
			Envelope: tasks.Envelope{
				ID:         id,
				Category:   tasks.CategoryPerformance,
				Priority:   tasks.PriorityMedium,
				SessionID:  row.SessionID,
				LocationID: row.BranchID,
				Customer:   customers[i],
				CreatedAt:  seen,
			},
			Kind:         KindSessionBounce,
			PageTitle:    row.PageTitle,
			PageLocation: row.PageLocation,
			LastSeen:     seen,
		})
	}

	overlay, err := s.overlay.Overlay(ctx, tenantID, tasks.CategoryPerformance, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if completion, ok := overlay[items[i].ID]; ok {
			c := completion
			items[i].Completion = &c
		}
	}
	return items, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
