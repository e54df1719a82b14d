package tasks

import (
	"net/http"

	"github.com/hawthornlabs/salesdesk-backend/api/responses"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/repeatvisit"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
)

// ListRepeatVisits returns one page of repeat-visit tasks.
func ListRepeatVisits(svc repeatvisit.Service, cfg config.TasksConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repeat-visit service unavailable"))
			return
		}

		filter, page, err := listParams(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), repeatvisit.Params{Filter: filter, Query: queryText(r), Page: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
