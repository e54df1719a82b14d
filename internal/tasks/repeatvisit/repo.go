package repeatvisit

import (
	"context"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"gorm.io/gorm"
)

// A session qualifies once it viewed three or more distinct page locations.
// Free text narrows to sessions that touched a matching page, via EXISTS, so
// the distinct-page count itself is never distorted by the match.
const listSQL = `
SELECT
    p.session_id AS session_id,
    COUNT(DISTINCT p.page_location) AS page_count,
    COUNT(*) AS view_count,
    MIN(p.event_timestamp) AS first_seen,
    MAX(p.event_timestamp) AS last_seen,
    MAX(p.user_id) AS web_user_id,
    MAX(p.customer_id) AS customer_id,
    MAX(p.branch_id) AS branch_id
FROM page_view p
WHERE %s%s
GROUP BY p.session_id
HAVING COUNT(DISTINCT p.page_location) >= 3
ORDER BY COUNT(DISTINCT p.page_location) DESC, p.session_id ASC
LIMIT ? OFFSET ?
`

const countSQL = `
SELECT COUNT(*) FROM (
    SELECT p.session_id
    FROM page_view p
    WHERE %s%s
    GROUP BY p.session_id
    HAVING COUNT(DISTINCT p.page_location) >= 3
) candidates
`

const querySQL = `
  AND EXISTS (
    SELECT 1 FROM page_view m
    WHERE m.tenant_id = p.tenant_id AND m.session_id = p.session_id
      AND (LOWER(m.page_title) LIKE ? ESCAPE '\' OR LOWER(m.page_location) LIKE ? ESCAPE '\')
  )`

// Row is one derived repeat-visit candidate.
type Row struct {
	SessionID  string  `gorm:"column:session_id"`
	PageCount  int     `gorm:"column:page_count"`
	ViewCount  int     `gorm:"column:view_count"`
	FirstSeen  int64   `gorm:"column:first_seen"`
	LastSeen   int64   `gorm:"column:last_seen"`
	WebUserID  *string `gorm:"column:web_user_id"`
	CustomerID *string `gorm:"column:customer_id"`
	BranchID   string  `gorm:"column:branch_id"`
}

// Repository runs the repeat-visit derivation queries.
type Repository struct {
	repo.Base
}

// NewRepository builds a repeat-visit repository bound to the provided DB.
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
	where, args := filter.Where("p")

	extra := ""
	if query != "" {
		extra = querySQL
		pattern := events.LikePattern(query)
		args = append(args, pattern, pattern)
	}
	return events.Compose(template, where, extra), args
}
