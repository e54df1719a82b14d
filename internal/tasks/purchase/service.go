package purchase

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

// Task is the purchase follow-up variant.
type Task struct {
	tasks.Envelope
	TransactionID string              `json:"transaction_id"`
	Revenue       decimal.Decimal     `json:"revenue"`
	Items         []tasks.ProductItem `json:"items"`
}

// Params selects and paginates purchase follow-up tasks.
type Params struct {
	Filter events.Filter
	Page   pagination.Params
}

// ListResult is one page of purchase tasks.
type ListResult struct {
	Items []Task `json:"items"`
	pagination.Window
}

// Service derives purchase follow-up tasks.
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

// NewService builds the purchase classifier service.
func NewService(repo *Repository, identities tasks.IdentityResolver, overlay tasks.OverlayReader, stats *metrics.TaskMetrics) (Service, error) {
	if repo == nil {
		return nil, errors.New("purchase repository is required")
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
	total, err := s.repo.Count(ctx, params.Filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count purchase tasks")
	}

	rows, err := s.repo.List(ctx, params.Filter, page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase tasks")
	}
	s.stats.ObserveQuery("purchase", s.now().Sub(started))

	items, err := s.buildTasks(ctx, params.Filter.TenantID, rows)
	if err != nil {
		return nil, err
	}
	s.stats.AddListed("purchase", len(items))

	return &ListResult{
		Items:  items,
		Window: pagination.NewWindow(page, total),
	}, nil
}

func (s *service) Count(ctx context.Context, filter events.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count purchase tasks")
	}
	return total, nil
}

// buildTasks resolves identities and the completion overlay for the page
// window only, then assembles the task variants.
func (s *service) buildTasks(ctx context.Context, tenantID string, rows []Row) ([]Task, error) {
	keys := make([]tasks.IdentityKey, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = tasks.IdentityKey{
			WebUserID:  deref(row.WebUserID),
			CustomerID: deref(row.CustomerID),
		}
		ids[i] = tasks.ID(tenantID, tasks.CategoryPurchase, row.TransactionID)
	}

	customers, err := s.identities.Resolve(ctx, tenantID, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve purchase identities")
	}
	overlay, err := s.overlay.Overlay(ctx, tenantID, tasks.CategoryPurchase, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]Task, len(rows))
	for i, row := range rows {
		revenue := tasks.ParseRevenue(row.Revenue)
		createdAt := tasks.EventTime(row.EventTimestamp)

		task := Task{
			Envelope: tasks.Envelope{
				ID:         ids[i],
				Category:   tasks.CategoryPurchase,
				Priority:   tasks.PurchasePriority(revenue, now.Sub(createdAt)),
				SessionID:  row.SessionID,
				LocationID: row.BranchID,
				Customer:   customers[i],
				CreatedAt:  createdAt,
			},
			TransactionID: row.TransactionID,
			Revenue:       revenue,
			Items:         tasks.ParseProductItems(row.ProductItems, nil),
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
