package purchase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

func newPurchaseService(t *testing.T) (Service, *gorm.DB) {
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

func seedPurchase(conn *gorm.DB, t *testing.T, tenant, session, date string, at time.Time, txn *string, revenue, items string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Purchase{
		TenantID: tenant, EventDate: date, EventTimestamp: at.UnixMicro(),
		SessionID: session, BranchID: "wh-1",
		TransactionID: txn, Revenue: revenue, ProductItems: items,
	}).Error)
}

func TestPurchaseListOneTaskPerTransaction(t *testing.T) {
	svc, conn := newPurchaseService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	// The pipeline occasionally replays an event: both rows share one
	// transaction and must collapse into one task.
	seedPurchase(conn, t, "t1", "s1", date, now.Add(-2*time.Hour), testdb.Ptr("txn-100"), "1200.50", `[{"item_id":"SKU-1","item_name":"copper pipe","price":"600.25","quantity":"2"}]`)
	seedPurchase(conn, t, "t1", "s1", date, now.Add(-2*time.Hour), testdb.Ptr("txn-100"), "1200.50", `[{"item_id":"SKU-1","item_name":"copper pipe","price":"600.25","quantity":"2"}]`)
	// Rows with no transaction never become tasks.
	seedPurchase(conn, t, "t1", "s2", date, now.Add(-time.Hour), nil, "80", "")
	seedPurchase(conn, t, "t1", "s3", date, now.Add(-time.Hour), testdb.Ptr(""), "80", "")

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	if result.Total != 1 {
		t.Fatalf("expected 1 task, got %d", result.Total)
	}
	require.Len(t, result.Items, 1)

	task := result.Items[0]
	if task.TransactionID != "txn-100" {
		t.Fatalf("unexpected transaction: %s", task.TransactionID)
	}
	if !task.Revenue.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("unexpected revenue: %s", task.Revenue)
	}
	if task.Priority != tasks.PriorityHigh {
		t.Fatalf("expected high priority for $1200.50, got %s", task.Priority)
	}
	if task.ID != tasks.ID("t1", tasks.CategoryPurchase, "txn-100") {
		t.Fatalf("unexpected task id %s", task.ID)
	}
	require.Len(t, task.Items, 1)
	if task.Items[0].ItemName != "copper pipe" || task.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", task.Items)
	}
}

func TestPurchasePriorityFromRevenueAndAge(t *testing.T) {
	svc, conn := newPurchaseService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	// $600 within 24h is still urgent; a week later the window has passed.
	seedPurchase(conn, t, "t1", "s1", date, now.Add(-2*time.Hour), testdb.Ptr("fresh"), "600", "")
	seedPurchase(conn, t, "t1", "s2", "2026-01-01", now.Add(-200*time.Hour), testdb.Ptr("stale"), "600", "")
	// Small and old drops to low.
	seedPurchase(conn, t, "t1", "s3", "2026-01-01", now.Add(-200*time.Hour), testdb.Ptr("small"), "40", "")
	// Unparseable revenue defaults to 0 and the task still lists.
	seedPurchase(conn, t, "t1", "s4", date, now.Add(-time.Hour), testdb.Ptr("garbled"), "not-a-number", "")

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	byTxn := map[string]Task{}
	for _, task := range result.Items {
		byTxn[task.TransactionID] = task
	}
	if got := byTxn["fresh"].Priority; got != tasks.PriorityHigh {
		t.Fatalf("fresh $600: expected high, got %s", got)
	}
	if got := byTxn["stale"].Priority; got != tasks.PriorityLow {
		t.Fatalf("stale $600: expected low, got %s", got)
	}
	if got := byTxn["small"].Priority; got != tasks.PriorityLow {
		t.Fatalf("old $40: expected low, got %s", got)
	}
	garbled := byTxn["garbled"]
	if !garbled.Revenue.IsZero() {
		t.Fatalf("expected zero revenue for garbled input, got %s", garbled.Revenue)
	}
	if garbled.Priority != tasks.PriorityLow {
		t.Fatalf("zero revenue: expected low, got %s", garbled.Priority)
	}
}

// Concatenating every page reproduces the full set exactly once.
func TestPurchasePaginationCoversSetOnce(t *testing.T) {
	svc, conn := newPurchaseService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	for i := 0; i < 7; i++ {
		seedPurchase(conn, t, "t1", fmt.Sprintf("s%d", i), date, now.Add(-time.Duration(i)*time.Minute),
			testdb.Ptr(fmt.Sprintf("txn-%d", i)), "100", "")
	}

	seen := map[string]bool{}
	page := 1
	for {
		result, err := svc.List(context.Background(), Params{
			Filter: events.Filter{TenantID: "t1"},
			Page:   pagination.Params{Page: page, Limit: 3},
		})
		require.NoError(t, err)
		if result.Total != 7 {
			t.Fatalf("total must be stable across pages, got %d on page %d", result.Total, page)
		}
		for _, task := range result.Items {
			if seen[task.ID] {
				t.Fatalf("duplicate task %s on page %d", task.ID, page)
			}
			seen[task.ID] = true
		}
		if !result.HasMore {
			if len(result.Items) != 1 {
				t.Fatalf("expected 1 task on the final page, got %d", len(result.Items))
			}
			break
		}
		page++
	}
	if len(seen) != 7 {
		t.Fatalf("expected 7 distinct tasks, got %d", len(seen))
	}
}

func TestPurchaseListNewestFirst(t *testing.T) {
	svc, conn := newPurchaseService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	seedPurchase(conn, t, "t1", "s1", date, now.Add(-3*time.Hour), testdb.Ptr("oldest"), "100", "")
	seedPurchase(conn, t, "t1", "s2", date, now.Add(-time.Hour), testdb.Ptr("newest"), "100", "")
	seedPurchase(conn, t, "t1", "s3", date, now.Add(-2*time.Hour), testdb.Ptr("middle"), "100", "")

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	order := []string{result.Items[0].TransactionID, result.Items[1].TransactionID, result.Items[2].TransactionID}
	if order[0] != "newest" || order[1] != "middle" || order[2] != "oldest" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestPurchaseLocationFilter(t *testing.T) {
	svc, conn := newPurchaseService(t)
	now := time.Now().UTC()
	date := now.Format(events.DateLayout)

	seedPurchase(conn, t, "t1", "s1", date, now.Add(-time.Hour), testdb.Ptr("txn-a"), "100", "")
	require.NoError(t, conn.Create(&models.Purchase{
		TenantID: "t1", EventDate: date, EventTimestamp: now.Add(-time.Hour).UnixMicro(),
		SessionID: "s2", BranchID: "wh-2",
		TransactionID: testdb.Ptr("txn-b"), Revenue: "100",
	}).Error)

	result, err := svc.List(context.Background(), Params{
		Filter: events.Filter{TenantID: "t1", LocationID: "wh-2"},
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	if result.Total != 1 || result.Items[0].TransactionID != "txn-b" {
		t.Fatalf("expected only the wh-2 purchase, got %+v", result.Items)
	}
}
