package locations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hawthornlabs/salesdesk-backend/internal/testdb"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
)

func TestListOrdersByDisplayName(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(conn, time.Second)
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.Location{
		TenantID: "t1", WarehouseCode: "wh-2", DisplayName: "Tulsa Yard", City: "Tulsa", State: "OK",
	}).Error)
	require.NoError(t, conn.Create(&models.Location{
		TenantID: "t1", WarehouseCode: "wh-1", DisplayName: "Austin Branch", City: "Austin", State: "TX",
	}).Error)
	require.NoError(t, conn.Create(&models.Location{
		TenantID: "t2", WarehouseCode: "wh-9", DisplayName: "Elsewhere", City: "Reno", State: "NV",
	}).Error)

	out, err := svc.List(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	if out[0].DisplayName != "Austin Branch" || out[1].DisplayName != "Tulsa Yard" {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestListRequiresTenant(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(conn, time.Second)
	require.NoError(t, err)

	_, err = svc.List(context.Background(), "  ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
