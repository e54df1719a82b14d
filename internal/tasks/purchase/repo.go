package purchase

import (
	"context"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"gorm.io/gorm"
)

// One task per transaction. Rows collapse onto the transaction id; the MAX
// aggregates are stable because the pipeline writes one purchase row per
// transaction and they keep the query portable across drivers.
const listSQL = `
SELECT
    p.transaction_id AS transaction_id,
    MAX(p.session_id) AS session_id,
    MAX(p.user_id) AS web_user_id,
    MAX(p.customer_id) AS customer_id,
    MAX(p.branch_id) AS branch_id,
    MAX(p.revenue) AS revenue,
    MAX(p.product_items) AS product_items,
    MAX(p.event_timestamp) AS event_timestamp
FROM purchase p
WHERE %s
  AND p.transaction_id IS NOT NULL
  AND p.transaction_id <> ''
GROUP BY p.transaction_id
ORDER BY MAX(p.event_timestamp) DESC, p.transaction_id ASC
LIMIT ? OFFSET ?
`

const countSQL = `
SELECT COUNT(DISTINCT p.transaction_id)
FROM purchase p
WHERE %s
  AND p.transaction_id IS NOT NULL
  AND p.transaction_id <> ''
`

// Row is one derived purchase candidate.
type Row struct {
	TransactionID  string  `gorm:"column:transaction_id"`
	SessionID      string  `gorm:"column:session_id"`
	WebUserID      *string `gorm:"column:web_user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
	Revenue        string  `gorm:"column:revenue"`
	ProductItems   string  `gorm:"column:product_items"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
}

// Repository runs the purchase follow-up derivation queries.
type Repository struct {
	repo.Base
}

// NewRepository builds a purchase repository bound to the provided DB.
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{Base: repo.NewBase(db, timeout)}
}

// List returns the page window of purchase candidates, newest first.
func (r *Repository) List(ctx context.Context, filter events.Filter, limit, offset int) ([]Row, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	where, args := filter.Where("p")
	args = append(args, limit, offset)

	var rows []Row
	err := r.DB(ctx).Raw(events.Compose(listSQL, where), args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the size of the full filtered candidate set.
func (r *Repository) Count(ctx context.Context, filter events.Filter) (int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	where, args := filter.Where("p")

	var total int64
	err := r.DB(ctx).Raw(events.Compose(countSQL, where), args...).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
