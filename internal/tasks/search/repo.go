package search

import (
	"context"
	"strings"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"gorm.io/gorm"
)

// Each (session, normalized term) pair is one candidate. The two sub-types
// come from different source tables and are unioned: zero-result searches
// always qualify, result-page searches qualify only while the session has no
// purchase (anti-join). The literal search_type column survives the union so
// one query can serve the combined list, the per-type filter, and the facets.
const noResultsSQL = `
SELECT
    'no_results' AS search_type,
    s.session_id AS session_id,
    LOWER(TRIM(s.search_term)) AS term,
    COUNT(*) AS search_count,
    MIN(s.event_timestamp) AS first_seen,
    MAX(s.event_timestamp) AS last_seen,
    MAX(s.user_id) AS web_user_id,
    MAX(s.customer_id) AS customer_id,
    MAX(s.branch_id) AS branch_id
FROM no_search_results s
WHERE %s
  AND TRIM(s.search_term) <> ''%s
GROUP BY s.session_id, LOWER(TRIM(s.search_term))
`

const noConversionSQL = `
SELECT
    'no_conversion' AS search_type,
    s.session_id AS session_id,
    LOWER(TRIM(s.search_term)) AS term,
    COUNT(*) AS search_count,
    MIN(s.event_timestamp) AS first_seen,
    MAX(s.event_timestamp) AS last_seen,
    MAX(s.user_id) AS web_user_id,
    MAX(s.customer_id) AS customer_id,
    MAX(s.branch_id) AS branch_id
FROM view_search_results s
WHERE %s
  AND TRIM(s.search_term) <> ''
  AND NOT EXISTS (SELECT 1 FROM purchase p WHERE %s AND p.session_id = s.session_id)%s
GROUP BY s.session_id, LOWER(TRIM(s.search_term))
`

const querySQL = ` AND LOWER(s.search_term) LIKE ? ESCAPE '\'`

// Row is one derived search candidate.
type Row struct {
	SearchType  string  `gorm:"column:search_type"`
	SessionID   string  `gorm:"column:session_id"`
	Term        string  `gorm:"column:term"`
	SearchCount int     `gorm:"column:search_count"`
	FirstSeen   int64   `gorm:"column:first_seen"`
	LastSeen    int64   `gorm:"column:last_seen"`
	WebUserID   *string `gorm:"column:web_user_id"`
	CustomerID  *string `gorm:"column:customer_id"`
	BranchID    string  `gorm:"column:branch_id"`
}

// Facet is the per-sub-type candidate count.
type Facet struct {
	SearchType string `gorm:"column:search_type"`
	Total      int64  `gorm:"column:total"`
}

// Repository runs the search analysis derivation queries.
type Repository struct {
	repo.Base
}

// NewRepository builds a search repository bound to the provided DB.
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return &Repository{Base: repo.NewBase(db, timeout)}
}

// List returns the page window of search candidates. subType narrows to one
// sub-type when set; orderBy must come from the service's whitelist.
func (r *Repository) List(ctx context.Context, filter events.Filter, query string, subType tasks.SearchType, orderBy string, limit, offset int) ([]Row, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := unionQuery(filter, query, subType)
	sql += "\nORDER BY " + orderBy + "\nLIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []Row
	if err := r.DB(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the size of the full filtered candidate set.
func (r *Repository) Count(ctx context.Context, filter events.Filter, query string, subType tasks.SearchType) (int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := unionQuery(filter, query, subType)
	sql = "SELECT COUNT(*) FROM (" + sql + ") candidates"

	var total int64
	if err := r.DB(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Facets counts candidates per sub-type across both sources. The sub-type
// filter is deliberately ignored here so the badges stay constant while the
// caller flips between types.
func (r *Repository) Facets(ctx context.Context, filter events.Filter, query string) (map[string]int64, error) {
	ctx, cancel := r.Bound(ctx)
	defer cancel()

	sql, args := unionQuery(filter, query, "")
	sql = "SELECT search_type, COUNT(*) AS total FROM (" + sql + ") candidates GROUP BY search_type"

	var rows []Facet
	if err := r.DB(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := map[string]int64{
		string(tasks.SearchNoResults):    0,
		string(tasks.SearchNoConversion): 0,
	}
	for _, row := range rows {
		out[row.SearchType] = row.Total
	}
	return out, nil
}

func unionQuery(filter events.Filter, query string, subType tasks.SearchType) (string, []any) {
	var parts []string
	var args []any

	if subType == "" || subType == tasks.SearchNoResults {
		sql, sqlArgs := noResultsQuery(filter, query)
		parts = append(parts, sql)
		args = append(args, sqlArgs...)
	}
	if subType == "" || subType == tasks.SearchNoConversion {
		sql, sqlArgs := noConversionQuery(filter, query)
		parts = append(parts, sql)
		args = append(args, sqlArgs...)
	}
	return strings.Join(parts, "\nUNION ALL\n"), args
}

func noResultsQuery(filter events.Filter, query string) (string, []any) {
	where, args := filter.Where("s")
	extra := ""
	if query != "" {
		extra = querySQL
		args = append(args, events.LikePattern(query))
	}
	return events.Compose(noResultsSQL, where, extra), args
}

func noConversionQuery(filter events.Filter, query string) (string, []any) {
	searchWhere, searchArgs := filter.Where("s")
	purchaseWhere, purchaseArgs := filter.Where("p")

	extra := ""
	args := append(searchArgs, purchaseArgs...)
	if query != "" {
		extra = querySQL
		args = append(args, events.LikePattern(query))
	}
	return events.Compose(noConversionSQL, searchWhere, purchaseWhere, extra), args
}
