package tasks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	"github.com/hawthornlabs/salesdesk-backend/internal/testdb"
	"github.com/hawthornlabs/salesdesk-backend/pkg/types"
)

func newTrackingService(t *testing.T) tracking.Service {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := tracking.NewService(tracking.NewRepository(conn, time.Second), nil)
	require.NoError(t, err)
	return svc
}

func TestUpsertCompletionRoundTrip(t *testing.T) {
	svc := newTrackingService(t)

	body := `{"tenant_id":"t1","task_id":"CART_deadbeef","task_type":"cart","completed":true,"notes":"called","completed_by":"rep-1"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks/completion", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	UpsertCompletion(svc, nil)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	get := httptest.NewRequest(http.MethodGet, "/tasks/completion?tenant_id=t1&task_id=CART_deadbeef&task_type=cart", nil)
	w = httptest.NewRecorder()
	GetCompletion(svc, nil)(w, get)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	status := envelope.Data.(map[string]any)
	if status["completed"] != true || status["notes"] != "called" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestUpsertCompletionRejectsBadTaskType(t *testing.T) {
	svc := newTrackingService(t)

	body := `{"tenant_id":"t1","task_id":"X_1","task_type":"bogus","completed":true}`
	req := httptest.NewRequest(http.MethodPost, "/tasks/completion", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	UpsertCompletion(svc, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpsertCompletionRejectsUnknownFields(t *testing.T) {
	svc := newTrackingService(t)

	body := `{"tenant_id":"t1","task_id":"CART_1","task_type":"cart","surprise":true}`
	req := httptest.NewRequest(http.MethodPost, "/tasks/completion", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	UpsertCompletion(svc, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBatchUpsertCompletionCountsWrites(t *testing.T) {
	svc := newTrackingService(t)

	body := `{"tenant_id":"t1","items":[
		{"task_id":"CART_1111aaaa","task_type":"cart","completed":true,"completed_by":"rep-1"},
		{"task_id":"PUR_2222bbbb","task_type":"purchase","completed":true,"completed_by":"rep-1"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/tasks/completion/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	BatchUpsertCompletion(svc, nil)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	if envelope.Data.(map[string]any)["updated"] != float64(2) {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestBatchUpsertCompletionRejectsEmptyItems(t *testing.T) {
	svc := newTrackingService(t)

	body := `{"tenant_id":"t1","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/tasks/completion/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	BatchUpsertCompletion(svc, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCompletionRequiresTenant(t *testing.T) {
	svc := newTrackingService(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/completion?task_id=CART_1&task_type=cart", nil)
	w := httptest.NewRecorder()
	GetCompletion(svc, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
