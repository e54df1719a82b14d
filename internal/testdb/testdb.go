package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hawthornlabs/salesdesk-backend/pkg/db/models"
)

// Open returns an isolated in-memory database with the full schema. The DSN
// is derived from the test name so parallel tests never share state, and the
// pool is pinned to one connection so the memory database survives between
// queries.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.PageView{},
		&models.AddToCart{},
		&models.Purchase{},
		&models.ViewSearchResults{},
		&models.NoSearchResults{},
		&models.User{},
		&models.Location{},
		&models.TaskTracking{},
	))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return conn
}

// Ptr returns a pointer to the given string; seeding shorthand for the
// nullable identity columns.
func Ptr(s string) *string { return &s }
