package performance

import (
	"context"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"gorm.io/gorm"
)

// A bounce is a session with exactly one page_view row. Two rules share that
// base set: page aggregates surface locations where more than two distinct
// sessions bounced, and the remaining rule reports each bounced session on
// its own. A bounced session contributes one row, so COUNT(*) over the base
// set is already a distinct-session count.
const sessionsSQL = `
SELECT
    p.session_id AS session_id,
    MAX(p.page_title) AS page_title,
    MAX(p.page_location) AS page_location,
    MAX(p.event_timestamp) AS event_timestamp,
    MAX(p.user_id) AS web_user_id,
    MAX(p.customer_id) AS customer_id,
    MAX(p.branch_id) AS branch_id
FROM page_view p
WHERE %s%s
GROUP BY p.session_id
HAVING COUNT(*) = 1
`

const sessionsPageSQL = `
ORDER BY MAX(p.event_timestamp) DESC, p.session_id ASC
LIMIT ? OFFSET ?
`

const pagesSQL = `
SELECT
    b.page_location AS page_location,
    MAX(b.page_title) AS page_title,
    COUNT(*) AS bounce_count,
    MAX(b.event_timestamp) AS last_seen,
    MAX(b.branch_id) AS branch_id
FROM (%s) b
GROUP BY b.page_location
HAVING COUNT(*) > 2
`

const pagesPageSQL = `
ORDER BY COUNT(*) DESC, b.page_location ASC
LIMIT ? OFFSET ?
`

const querySQL = ` AND (LOWER(p.page_title) LIKE ? ESCAPE '\' OR LOWER(p.page_location) LIKE ? ESCAPE '\')`

// SessionRow is one bounced session.
type SessionRow struct {
	SessionID      string  `gorm:"column:session_id"`
	PageTitle      string  `gorm:"column:page_title"`
	PageLocation   string  `gorm:"column:page_location"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
	WebUserID      *string `gorm:"column:web_user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
}

// PageRow is one high-bounce page aggregate.
type PageRow struct {
	PageLocation string `gorm:"column:page_location"`
	PageTitle    string `gorm:"column:page_title"`
	BounceCount  int    `gorm:"column:bounce_count"`
	LastSeen     int64  `gorm:"column:last_seen"`
	BranchID     string `gorm:"column:branch_id"`
}

// Repository runs the bounce derivation queries.
type Repository struct {
	repo.Base
}

// NewRepository builds a performance repository bound to the provided DB.
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{Base: repo.NewBase(db, timeout)}
}

// ListSessions returns a window of bounced sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context, filter events.Filter, query string, limit, offset int) ([]SessionRow, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := baseQuery(filter, query)
	args = append(args, limit, offset)

	var rows []SessionRow
	if err := r.DB(ctx).Raw(sql+sessionsPageSQL, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountSessions returns the full bounced-session count.
func (r *Repository) CountSessions(ctx context.Context, filter events.Filter, query string) (int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := baseQuery(filter, query)
	sql = "SELECT COUNT(*) FROM (" + sql + ") bounces"

	var total int64
	if err := r.DB(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListPages returns a window of high-bounce page aggregates, worst first.
func (r *Repository) ListPages(ctx context.Context, filter events.Filter, query string, limit, offset int) ([]PageRow, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	base, args := baseQuery(filter, query)
	sql := events.Compose(pagesSQL, base) + pagesPageSQL
	args = append(args, limit, offset)

	var rows []PageRow
	if err := r.DB(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPages returns the full high-bounce page count.
func (r *Repository) CountPages(ctx context.Context, filter events.Filter, query string) (int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	base, args := baseQuery(filter, query)
	sql := "SELECT COUNT(*) FROM (" + events.Compose(pagesSQL, base) + ") pages"

	var total int64
	if err := r.DB(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func baseQuery(filter events.Filter, query string) (string, []any) {
	where, args := filter.Where("p")

	extra := ""
	if query != "" {
		extra = querySQL
		pattern := events.LikePattern(query)
		args = append(args, pattern, pattern)
	}
	return events.Compose(sessionsSQL, where, extra), args
}
