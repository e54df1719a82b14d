package cart

import (
	"context"
	"errors"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/metrics"
	"github.com/hawthornlabs/salesdesk-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Task is the cart abandonment variant.
type Task struct {
	tasks.Envelope
	CartValue     decimal.Decimal     `json:"cart_value"`
	ItemCount     int                 `json:"item_count"`
	FirstActivity time.Time           `json:"first_activity"`
	LastActivity  time.Time           `json:"last_activity"`
	Items         []tasks.ProductItem `json:"items"`
}

// Params selects and paginates cart abandonment tasks.
type Params struct {
	Filter events.Filter
	Query  string
	Page   pagination.Params
}

// ListResult is one page of cart tasks.
type ListResult struct {
	Items []Task `json:"items"`
	pagination.Window
}

// Service derives cart abandonment tasks.
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

// NewService builds the cart classifier service.
func NewService(repo *Repository, identities tasks.IdentityResolver, overlay tasks.OverlayReader, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("cart repository is required")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart tasks")
	}

	rows, err := s.repo.List(ctx, params.Filter, params.Query, page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart tasks")
	}
	s.stats.ObserveQuery("cart", s.now().Sub(started))

	items, err := s.buildTasks(ctx, params.Filter.TenantID, rows)
	if err != nil {
		return nil, err
	}
	s.stats.AddListed("cart", len(items))

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
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart tasks")
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
		ids[i] = tasks.ID(tenantID, tasks.CategoryCart, row.SessionID)
	}

	customers, err := s.identities.Resolve(ctx, tenantID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cart identities")
	}
	overlay, err := s.overlay.Overlay(ctx, tenantID, tasks.CategoryCart, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]Task, len(rows))
	for i, row := range rows {
		// Age runs from the last cart touch, not the first: a cart that was
		// still being filled an hour ago is fresher than its first add.
		lastActivity := tasks.EventTime(row.LastSeen)

		fallback := &tasks.ProductItem{
			ItemID:   row.ItemID,
			ItemName: row.ItemName,
			Price:    row.Price,
			Quantity: row.Quantity,
		}

		task := Task{
			Envelope: tasks.Envelope{
				ID:         ids[i],
				Category:   tasks.CategoryCart,
				Priority:   tasks.CartPriority(row.CartValue, now.Sub(lastActivity)),
				SessionID:  row.SessionID,
				LocationID: row.BranchID,
				Customer:   customers[i],
				CreatedAt:  lastActivity,
			},
			CartValue:     row.CartValue,
			ItemCount:     row.ItemCount,
			FirstActivity: tasks.EventTime(row.FirstSeen),
			LastActivity:  lastActivity,
			Items:         tasks.ParseProductItems(row.LatestItems, fallback),
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
