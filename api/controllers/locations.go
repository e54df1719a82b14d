package controllers

import (
	"net/http"

	"github.com/hawthornlabs/salesdesk-backend/api/responses"
	"github.com/hawthornlabs/salesdesk-backend/api/validators"
	"github.com/hawthornlabs/salesdesk-backend/internal/locations"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
)

// ListLocations returns the tenant's branches for the location filter.
func ListLocations(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locations service unavailable"))
			return
		}

		tenantID := validators.SanitizeString(r.URL.Query().Get("tenant_id"), 64)
		items, err := svc.List(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
