package identity

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/repo"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Resolver maps event identity hints onto the tenant's customer directory.
// The web user id wins; the buying-company fallback applies only when no web
// user id is present on the event group.
// Lookups are batched per page window: two IN queries regardless of page
// size, never a per-row round trip.
type Resolver struct {
	repo.Base
}

// NewResolver builds a resolver bound to the provided DB.
func NewResolver(db *gorm.DB, timeout time.Duration) *Resolver {
	return &Resolver{Base: repo.NewBase(db, timeout)}
}

// Resolve returns one customer snapshot per key, aligned by index. Keys with
// no directory match resolve to the Unknown Customer placeholder; that is not
// an error.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, keys []tasks.IdentityKey) ([]tasks.Customer, error) {
	out := make([]tasks.Customer, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	webIDs := make([]int64, 0, len(keys))
	companyIDs := make([]string, 0, len(keys))
	seenWeb := map[int64]bool{}
	seenCompany := map[string]bool{}
	for _, key := range keys {
		if id, ok := parseWebUserID(key.WebUserID); ok && !seenWeb[id] {
			seenWeb[id] = true
			webIDs = append(webIDs, id)
		}
		if company := strings.TrimSpace(key.CustomerID); company != "" && !seenCompany[company] {
			seenCompany[company] = true
			companyIDs = append(companyIDs, company)
		}
	}

	ctx, cancel := r.Bound(ctx)
	defer cancel()

	byWebID := map[int64]models.User{}
	if len(webIDs) > 0 {
		var rows []models.User
		err := r.DB(ctx).
			Where("tenant_id = ? AND user_id IN ?", tenantID, webIDs).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if _, ok := byWebID[row.UserID]; !ok {
				byWebID[row.UserID] = row
			}
		}
	}

	byCompanyID := map[string]models.User{}
	if len(companyIDs) > 0 {
		var rows []models.User
		err := r.DB(ctx).
			Where("tenant_id = ? AND cimm_buying_company_id IN ?", tenantID, companyIDs).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.BuyingCompanyID == nil {
				continue
			}
			if _, ok := byCompanyID[*row.BuyingCompanyID]; !ok {
				byCompanyID[*row.BuyingCompanyID] = row
			}
		}
	}

	for i, key := range keys {
		out[i] = resolveOne(key, byWebID, byCompanyID)
	}
	return out, nil
}

func resolveOne(key tasks.IdentityKey, byWebID map[int64]models.User, byCompanyID map[string]models.User) tasks.Customer {
	if id, ok := parseWebUserID(key.WebUserID); ok {
		if user, found := byWebID[id]; found {
			return toCustomer(user)
		}
		// An explicit web user id that is absent from the directory does not
		// fall through to the company match.
		return tasks.UnknownCustomer()
	}
	if company := strings.TrimSpace(key.CustomerID); company != "" {
		if user, found := byCompanyID[company]; found {
			return toCustomer(user)
		}
	}
	return tasks.UnknownCustomer()
}

func parseWebUserID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func toCustomer(user models.User) tasks.Customer {
	phone := user.Phone1
	if phone == "" {
		phone = user.Phone2
	}
	return tasks.Customer{
		Known:   true,
		UserID:  strconv.FormatInt(user.UserID, 10),
		Name:    user.Name,
		Email:   user.Email,
		Phone:   phone,
		Company: user.CompanyName,
	}
}
