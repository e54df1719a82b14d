package locations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"gorm.io/gorm"
)

// Location is the filter-dropdown view of a tenant branch.
type Location struct {
	WarehouseCode string `json:"warehouse_code"`
	DisplayName   string `json:"display_name"`
	City          string `json:"city"`
	State         string `json:"state"`
}

// Service lists the tenant's locations.
type Service interface {
	List(ctx context.Context, tenantID string) ([]Location, error)
}

type service struct {
	repo.Base
}

// NewService builds the locations service.
func NewService(db *gorm.DB, timeout time.Duration) (Service, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &service{Base: repo.NewBase(db, timeout)}, nil
}

func (s *service) List(ctx context.Context, tenantID string) ([]Location, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}

	ctx, cancel := s.Bound(ctx)
	defer cancel()

	var rows []models.Location
	err := s.DB(ctx).
		Where("tenant_id = ?", tenantID).
		Order("display_name ASC, warehouse_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}

	out := make([]Location, len(rows))
	for i, row := range rows {
		out[i] = Location{
			WarehouseCode: row.WarehouseCode,
			DisplayName:   row.DisplayName,
			City:          row.City,
			State:         row.State,
		}
	}
	return out, nil
}
