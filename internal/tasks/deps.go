package tasks

import "context"

// IdentityKey carries the identity hints found on an event group.
type IdentityKey struct {
	WebUserID  string
	CustomerID string
}

// IdentityResolver resolves a page window's identity hints in one batch.
// Implemented by internal/identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, tenantID string, keys []IdentityKey) ([]Customer, error)
}

// OverlayReader loads the completion overlay for a page window's task ids.
// Implemented by internal/tasks/tracking.
type OverlayReader interface {
	Overlay(ctx context.Context, tenantID string, category Category, taskIDs []string) (map[string]Completion, error)
}
