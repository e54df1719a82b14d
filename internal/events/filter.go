package events

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
)

// DateLayout is the calendar-day granularity used by all range filters.
const DateLayout = "2006-01-02"

// Filter is the typed, composable predicate shared by every classifier query.
// TenantID is mandatory; the builder refuses to render a clause without it so
// no query can ever scan across tenants.
type Filter struct {
	TenantID   string
	LocationID string
	From       string
	To         string
}

// Validate checks the filter before any query runs.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.TenantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}
	for _, date := range []string{f.From, f.To} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "dates must be YYYY-MM-DD").
				WithDetails(map[string]any{"value": date})
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	return nil
}

// Where renders the filter as a parameterized conjunction for the given table
// alias. Both date bounds are inclusive. The caller prepends "WHERE " or
// "AND " as needed.
func (f Filter) Where(alias string) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 4)

	sb.WriteString(alias + ".tenant_id = ?")
	args = append(args, f.TenantID)

	if f.LocationID != "" {
		sb.WriteString(" AND " + alias + ".branch_id = ?")
		args = append(args, f.LocationID)
	}
	if f.From != "" {
		sb.WriteString(" AND " + alias + ".event_date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		sb.WriteString(" AND " + alias + ".event_date <= ?")
		args = append(args, f.To)
	}
	return sb.String(), args
}

// Compose splices rendered WHERE fragments into a query template. The
// fragments carry only ?-placeholders; values always travel separately as
// bound arguments.
func Compose(template string, fragments ...any) string {
	return fmt.Sprintf(template, fragments...)
}

// LikePattern turns free query text into a case-insensitive LIKE pattern,
// escaping the SQL wildcards the user may have typed.
func LikePattern(q string) string {
	q = strings.TrimSpace(strings.ToLower(q))
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(q) + "%"
}
