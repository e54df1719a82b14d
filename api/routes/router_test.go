package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hawthornlabs/salesdesk-backend/internal/identity"
	"github.com/hawthornlabs/salesdesk-backend/internal/locations"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/cart"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/performance"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/purchase"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/repeatvisit"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/search"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/summary"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	"github.com/hawthornlabs/salesdesk-backend/internal/testdb"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
	"github.com/hawthornlabs/salesdesk-backend/pkg/types"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	conn := testdb.Open(t)

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	cfg := &config.Config{
		App:   config.AppConfig{Env: "dev", Port: "8080"},
		Tasks: config.TasksConfig{DefaultPageSize: 25, MaxPageSize: 100},
	}

	resolver := identity.NewResolver(conn, time.Second)

	trackingService, err := tracking.NewService(tracking.NewRepository(conn, time.Second), nil)
	require.NoError(t, err)
	purchaseService, err := purchase.NewService(purchase.NewRepository(conn, time.Second), resolver, trackingService, nil)
	require.NoError(t, err)
	cartService, err := cart.NewService(cart.NewRepository(conn, time.Second), resolver, trackingService, nil)
	require.NoError(t, err)
	searchService, err := search.NewService(search.NewRepository(conn, time.Second), resolver, trackingService, nil)
	require.NoError(t, err)
	repeatVisitService, err := repeatvisit.NewService(repeatvisit.NewRepository(conn, time.Second), resolver, trackingService, nil)
	require.NoError(t, err)
	performanceService, err := performance.NewService(performance.NewRepository(conn, time.Second), resolver, trackingService, nil)
	require.NoError(t, err)
	summaryService, err := summary.NewService(purchaseService, cartService, searchService, repeatVisitService, performanceService, nil)
	require.NoError(t, err)
	locationsService, err := locations.NewService(conn, time.Second)
	require.NoError(t, err)

	handler := NewRouter(
		cfg, logg, okPinger{}, nil, nil,
		locationsService,
		purchaseService, cartService, searchService, repeatVisitService, performanceService,
		summaryService, trackingService,
	)
	return handler, conn
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	handler, _ := newTestRouter(t)

	if w := get(t, handler, "/health/live"); w.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", w.Code)
	}
	if w := get(t, handler, "/health/ready"); w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTaskRoutesRequireTenant(t *testing.T) {
	handler, _ := newTestRouter(t)

	paths := []string{
		"/api/v1/tasks/summary",
		"/api/v1/tasks/purchases",
		"/api/v1/tasks/carts",
		"/api/v1/tasks/searches",
		"/api/v1/tasks/repeat-visits",
		"/api/v1/tasks/performance",
	}
	for _, path := range paths {
		if w := get(t, handler, path); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 without tenant_id, got %d", path, w.Code)
		}
	}
}

func TestSummaryEndToEnd(t *testing.T) {
	handler, conn := newTestRouter(t)
	now := time.Now().UTC()
	date := now.Format("2006-01-02")

	txn := "txn-1"
	require.NoError(t, conn.Create(&models.Purchase{
		TenantID: "t1", EventDate: date, EventTimestamp: now.UnixMicro(),
		SessionID: "s1", BranchID: "wh-1", TransactionID: &txn, Revenue: "150",
	}).Error)

	w := get(t, handler, "/api/v1/tasks/summary?tenant_id=t1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	payload := envelope.Data.(map[string]any)
	if payload["total"] != float64(1) {
		t.Fatalf("unexpected summary: %+v", payload)
	}
	counts := payload["counts"].(map[string]any)
	if counts["purchase"] != float64(1) {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestPurchaseListEndToEnd(t *testing.T) {
	handler, conn := newTestRouter(t)
	now := time.Now().UTC()
	date := now.Format("2006-01-02")

	txn := "txn-9"
	require.NoError(t, conn.Create(&models.Purchase{
		TenantID: "t1", EventDate: date, EventTimestamp: now.UnixMicro(),
		SessionID: "s1", BranchID: "wh-1", TransactionID: &txn, Revenue: "2000",
	}).Error)

	w := get(t, handler, "/api/v1/tasks/purchases?tenant_id=t1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	payload := envelope.Data.(map[string]any)
	items := payload["items"].([]any)
	require.Len(t, items, 1)
	task := items[0].(map[string]any)
	if task["transaction_id"] != "txn-9" || task["priority"] != "high" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	handler, _ := newTestRouter(t)
	if w := get(t, handler, "/api/v1/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
