package cart

import (
	"context"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// A session is abandoned when it added to cart and no purchase row shares its
// session id inside the same tenant/location/date window (anti-join). Zero
// value carts are noise, not recoverable opportunities, and are dropped in
// the HAVING clause so the count and the list can never disagree about them.
const listSQL = `
SELECT
    c.session_id AS session_id,
    COUNT(*) AS item_count,
    SUM(c.price * c.quantity) AS cart_value,
    MIN(c.event_timestamp) AS first_seen,
    MAX(c.event_timestamp) AS last_seen,
    MAX(c.user_id) AS web_user_id,
    MAX(c.customer_id) AS customer_id,
    MAX(c.branch_id) AS branch_id,
    MAX(c.item_id) AS item_id,
    MAX(c.item_name) AS item_name,
    MAX(c.price) AS price,
    MAX(c.quantity) AS quantity,
    (SELECT x.product_items FROM add_to_cart x
       WHERE x.tenant_id = c.tenant_id AND x.session_id = c.session_id
       ORDER BY x.event_timestamp DESC LIMIT 1) AS latest_items
FROM add_to_cart c
WHERE %s
  AND NOT EXISTS (SELECT 1 FROM purchase p WHERE %s AND p.session_id = c.session_id)%s
GROUP BY c.session_id
HAVING SUM(c.price * c.quantity) <> 0
ORDER BY SUM(c.price * c.quantity) DESC, c.session_id ASC
LIMIT ? OFFSET ?
`

const countSQL = `
SELECT COUNT(*) FROM (
    SELECT c.session_id
    FROM add_to_cart c
    WHERE %s
      AND NOT EXISTS (SELECT 1 FROM purchase p WHERE %s AND p.session_id = c.session_id)%s
    GROUP BY c.session_id
    HAVING SUM(c.price * c.quantity) <> 0
) candidates
`

const querySQL = ` AND (LOWER(c.item_name) LIKE ? ESCAPE '\' OR LOWER(c.product_items) LIKE ? ESCAPE '\')`

// Row is one derived abandoned-cart candidate.
type Row struct {
	SessionID   string          `gorm:"column:session_id"`
	ItemCount   int             `gorm:"column:item_count"`
	CartValue   decimal.Decimal `gorm:"column:cart_value"`
	FirstSeen   int64           `gorm:"column:first_seen"`
	LastSeen    int64           `gorm:"column:last_seen"`
	WebUserID   *string         `gorm:"column:web_user_id"`
	CustomerID  *string         `gorm:"column:customer_id"`
	BranchID    string          `gorm:"column:branch_id"`
	ItemID      string          `gorm:"column:item_id"`
	ItemName    string          `gorm:"column:item_name"`
	Price       decimal.Decimal `gorm:"column:price"`
	Quantity    int             `gorm:"column:quantity"`
	LatestItems string          `gorm:"column:latest_items"`
}

// Repository runs the cart abandonment derivation queries.
type Repository struct {
	repo.Base
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{Base: repo.NewBase(db, timeout)}
}

func (r *Repository) List(ctx context.Context, filter events.Filter, query string, limit, offset int) ([]Row, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := buildQuery(listSQL, filter, query)
	args = append(args, limit, offset)

	var rows []Row
	if err := r.DB(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Count(ctx context.Context, filter events.Filter, query string) (int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := buildQuery(countSQL, filter, query)

	var total int64
	if err := r.DB(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func buildQuery(template string, filter events.Filter, query string) (string, []any) {
	cartWhere, cartArgs := filter.Where("c")
	purchaseWhere, purchaseArgs := filter.Where("p")

	extra := ""
	args := append(cartArgs, purchaseArgs...)
	if query != "" {
		extra = querySQL
		pattern := events.LikePattern(query)
		args = append(args, pattern, pattern)
	}
	return events.Compose(template, cartWhere, purchaseWhere, extra), args
}
