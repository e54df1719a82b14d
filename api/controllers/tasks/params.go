package tasks

import (
	"net/http"

	"github.com/hawthornlabs/salesdesk-backend/api/validators"
	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	"github.com/hawthornlabs/salesdesk-backend/pkg/pagination"
)

// listParams reads the query parameters every task list shares. Filter
// semantics (mandatory tenant, date shapes) are validated by the services.
func listParams(r *http.Request, cfg config.TasksConfig) (events.Filter, pagination.Params, error) {
	filter := validators.ParseEventFilter(r)

	page, err := validators.ParsePagination(r, cfg.MaxPageSize)
	if err != nil {
		return events.Filter{}, pagination.Params{}, err
	}
	if page.Limit == 0 {
		page.Limit = cfg.DefaultPageSize
	}
	return filter, page, nil
}

func queryText(r *http.Request) string {
	return validators.SanitizeString(r.URL.Query().Get("q"), 120)
}
