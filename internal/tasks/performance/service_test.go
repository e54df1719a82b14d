package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/identity"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	"github.com/hawthornlabs/salesdesk-backend/internal/testdb"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	"github.com/hawthornlabs/salesdesk-backend/pkg/pagination"
)

func newPerformanceService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := testdb.Open(t)

	trackingService, err := tracking.NewService(tracking.NewRepository(conn, time.Second), nil)
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(conn, time.Second),
		identity.NewResolver(conn, time.Second),
		trackingService,
		nil,
	)
	require.NoError(t, err)
	return svc, conn
}

func pageView(conn *gorm.DB, t *testing.T, tenant, session, date string, at time.Time, title, location string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.PageView{
		TenantID: tenant, EventDate: date, EventTimestamp: at.UnixMicro(),
		SessionID: session, BranchID: "wh-1",
		PageTitle: title, PageLocation: location,
	}).Error)
}

func TestPerformanceListUnionsRules(t *testing.T) {
	svc, conn := newPerformanceService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	// Three distinct sessions bounce on /pricing: page alert plus three
	// session tasks.
	for i := 1; i <= 3; i++ {
		pageView(conn, t, "t1", fmt.Sprintf("bounce-%d", i), date, now.Add(-time.Duration(i)*time.Minute), "Pricing", "/pricing")
	}
	// One bounce on /about: below the >2 threshold, session task only.
	pageView(conn, t, "t1", "bounce-4", date, now.Add(-time.Minute), "About", "/about")
	// A two-page session is not a bounce at all.
	pageView(conn, t, "t1", "engaged", date, now.Add(-10*time.Minute), "Home", "/")
	pageView(conn, t, "t1", "engaged", date, now.Add(-9*time.Minute), "Pricing", "/pricing")

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	if result.Total != 5 {
		t.Fatalf("expected 1 page alert + 4 session bounces, got %d", result.Total)
	}
	require.Len(t, result.Items, 5)

	alert := result.Items[0]
	if alert.Kind != KindPageAlert || alert.PageLocation != "/pricing" {
		t.Fatalf("expected /pricing page alert first, got %+v", alert)
	}
	if alert.BounceCount != 3 {
		t.Fatalf("expected 3 bounced sessions, got %d", alert.BounceCount)
	}
	if alert.Priority != tasks.PriorityLow {
		t.Fatalf("expected low priority for 3 bounces, got %s", alert.Priority)
	}
	if alert.Customer.Known {
		t.Fatalf("page alerts carry no customer, got %+v", alert.Customer)
	}
	if alert.SessionID != "" {
		t.Fatalf("page alerts aggregate sessions, got %q", alert.SessionID)
	}

	for _, task := range result.Items[1:] {
		if task.Kind != KindSessionBounce {
			t.Fatalf("expected session bounce after the alerts, got %+v", task)
		}
		if task.Priority != tasks.PriorityMedium {
			t.Fatalf("session bounces are always medium, got %s", task.Priority)
		}
	}
}

func TestPerformancePageAlertThreshold(t *testing.T) {
	svc, conn := newPerformanceService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	// Exactly two bounced sessions is not enough for a page alert.
	pageView(conn, t, "t1", "b1", date, now.Add(-2*time.Minute), "Pricing", "/pricing")
	pageView(conn, t, "t1", "b2", date, now.Add(-time.Minute), "Pricing", "/pricing")

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	for _, task := range result.Items {
		if task.Kind == KindPageAlert {
			t.Fatalf("expected no page alert for 2 bounces, got %+v", task)
		}
	}
	if result.Total != 2 {
		t.Fatalf("expected the 2 session bounces, got %d", result.Total)
	}
}

// Pages straddling the alert/session boundary concatenate into the complete
// set with no duplicates or gaps.
func TestPerformancePaginationAcrossSegments(t *testing.T) {
	svc, conn := newPerformanceService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	for i := 1; i <= 3; i++ {
		pageView(conn, t, "t1", fmt.Sprintf("bounce-%d", i), date, now.Add(-time.Duration(i)*time.Minute), "Pricing", "/pricing")
	}
	pageView(conn, t, "t1", "bounce-4", date, now.Add(-time.Minute), "About", "/about")

	seen := map[string]bool{}
	page := 1
	for {
		result, err := svc.List(context.Background(), Params{
			Filter: events.Filter{TenantID: "t1"},
			Page:   pagination.Params{Page: page, Limit: 2},
		})
		require.NoError(t, err)
		for _, task := range result.Items {
			if seen[task.ID] {
				t.Fatalf("duplicate task id %s on page %d", task.ID, page)
			}
			seen[task.ID] = true
		}
		if !result.HasMore {
			break
		}
		page++
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct tasks across pages, got %d", len(seen))
	}
}

func TestPerformanceTaskIDsStable(t *testing.T) {
	svc, conn := newPerformanceService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	for i := 1; i <= 3; i++ {
		pageView(conn, t, "t1", fmt.Sprintf("bounce-%d", i), date, now.Add(-time.Duration(i)*time.Minute), "Pricing", "/pricing")
	}

	first, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	second, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Fatalf("task ids must be reproducible: %s vs %s", first.Items[i].ID, second.Items[i].ID)
		}
	}
}
