package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories. Every query runs
// under the configured statement timeout so a slow aggregate surfaces as a
// retryable error instead of a hung connection.
type Base struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB, timeout time.Duration) Base {
	return Base{db: db, timeout: timeout}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bound derives a context carrying the statement timeout. The returned cancel
// must always be called.
func (b Base) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}
