package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseEventFilter reads the shared tenant/location/date query parameters.
// Validation happens in the service layer; this only shapes the input.
func ParseEventFilter(r *http.Request) events.Filter {
	q := r.URL.Query()
	return events.Filter{
		TenantID:   SanitizeString(q.Get("tenant_id"), 64),
		LocationID: SanitizeString(q.Get("location_id"), 64),
		From:       SanitizeString(q.Get("from"), 10),
		To:         SanitizeString(q.Get("to"), 10),
	}
}

// ParsePagination reads page/limit with the configured page-size cap.
func ParsePagination(r *http.Request, maxLimit int) (pagination.Params, error) {
	page, err := ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := ParseQueryInt(r, "limit", 0, 1, maxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}
