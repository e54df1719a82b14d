package tasks

import (
	"net/http"

	"github.com/hawthornlabs/salesdesk-backend/api/responses"
	"github.com/hawthornlabs/salesdesk-backend/api/validators"
	core "github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/search"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
)

// ListSearches returns one page of search analysis tasks plus sub-type
// facets.
func ListSearches(svc search.Service, cfg config.TasksConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}

		filter, page, err := listParams(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := search.Params{
			Filter:  filter,
			Query:   queryText(r),
			SubType: core.SearchType(validators.SanitizeString(r.URL.Query().Get("type"), 32)),
			Sort:    validators.SanitizeString(r.URL.Query().Get("sort"), 16),
			Order:   validators.SanitizeString(r.URL.Query().Get("order"), 4),
			Page:    page,
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
