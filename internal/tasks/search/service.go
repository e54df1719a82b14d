package search

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

// Sort fields accepted by the list endpoint.
const (
	SortCount    = "count"
	SortTerm     = "term"
	SortLastSeen = "last_seen"
)

// Every sort carries term and session tie-breakers so repeated identical
// queries page identically.
var orderings = map[string]map[string]string{
	SortCount: {
		"desc": "search_count DESC, term ASC, session_id ASC",
		"asc":  "search_count ASC, term ASC, session_id ASC",
	},
	SortTerm: {
		"desc": "term DESC, session_id ASC",
		"asc":  "term ASC, session_id ASC",
	},
	SortLastSeen: {
		"desc": "last_seen DESC, term ASC, session_id ASC",
		"asc":  "last_seen ASC, term ASC, session_id ASC",
	},
}

// Task is the search analysis variant.
type Task struct {
	tasks.Envelope
	SearchType  tasks.SearchType `json:"search_type"`
	SearchTerm  string           `json:"search_term"`
	SearchCount int              `json:"search_count"`
	FirstSeen   time.Time        `json:"first_seen"`
	LastSeen    time.Time        `json:"last_seen"`
}

// Params selects, sorts, and paginates search analysis tasks.
type Params struct {
	Filter  events.Filter
	Query   string
	SubType tasks.SearchType
	Sort    string
	Order   string
	Page    pagination.Params
}

// ListResult is one page of search tasks plus the sub-type facets.
type ListResult struct {
	Items  []Task           `json:"items"`
	Facets map[string]int64 `json:"facets"`
	pagination.Window
}

// Service derives search analysis tasks.
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

// NewService builds the search classifier service.
func NewService(repo *Repository, identities tasks.IdentityResolver, overlay tasks.OverlayReader, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("search repository is required")
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
	if params.SubType != "" && !params.SubType.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown search type").
			WithDetails(map[string]any{"type": string(params.SubType)})
	}
	orderBy, err := ordering(params.Sort, params.Order)
	if err != nil {
		return nil, err
	}
	page := params.Page.Normalize()

	started := s.now()
	total, err := s.repo.Count(ctx, params.Filter, params.Query, params.SubType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count search tasks")
	}

	rows, err := s.repo.List(ctx, params.Filter, params.Query, params.SubType, orderBy, page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list search tasks")
	}

	facets, err := s.repo.Facets(ctx, params.Filter, params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "facet search tasks")
	}
	s.stats.ObserveQuery("search", s.now().Sub(started))

	items, err := s.buildTasks(ctx, params.Filter.TenantID, rows)
	if err != nil {
		return nil, err
	}
	s.stats.AddListed("search", len(items))

	return &ListResult{
		Items:  items,
		Facets: facets,
		Window: pagination.NewWindow(page, total),
	}, nil
}

func (s *service) Count(ctx context.Context, filter events.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	total, err := s.repo.Count(ctx, filter, "", "")
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count search tasks")
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
		// The sub-type joins the natural key so the same term can carry an
		// open no_results task and a completed no_conversion one.
		ids[i] = tasks.ID(tenantID, tasks.CategorySearch, row.SearchType+"|"+tasks.SearchKey(row.SessionID, row.Term))
	}

	customers, err := s.identities.Resolve(ctx, tenantID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve search identities")
	}
	overlay, err := s.overlay.Overlay(ctx, tenantID, tasks.CategorySearch, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Task, len(rows))
	for i, row := range rows {
		subType := tasks.SearchType(row.SearchType)
		task := Task{
			Envelope: tasks.Envelope{
				ID:         ids[i],
				Category:   tasks.CategorySearch,
				Priority:   tasks.SearchPriority(subType, row.SearchCount),
				SessionID:  row.SessionID,
				LocationID: row.BranchID,
				Customer:   customers[i],
				CreatedAt:  tasks.EventTime(row.LastSeen),
			},
			SearchType:  subType,
			SearchTerm:  row.Term,
			SearchCount: row.SearchCount,
			FirstSeen:   tasks.EventTime(row.FirstSeen),
			LastSeen:    tasks.EventTime(row.LastSeen),
		}
		if completion, ok := overlay[ids[i]]; ok {
			c := completion
			task.Completion = &c
		}
		items[i] = task
	}
	return items, nil
}

func ordering(field, order string) (string, error) {
	if field == "" {
		field = SortCount
	}
	directions, ok := orderings[field]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown sort field").
			WithDetails(map[string]any{"sort": field})
	}
	if order == "" {
		order = "desc"
	}
	clause, ok := directions[order]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc").
			WithDetails(map[string]any{"order": order})
	}
	return clause, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
