package tasks

import "time"

// Category tags the five task variants.
type Category string

const (
	CategoryPurchase    Category = "purchase"
	CategoryCart        Category = "cart"
	CategorySearch      Category = "search"
	CategoryRepeatVisit Category = "repeat_visit"
	CategoryPerformance Category = "performance"
)

// Categories lists every valid category, in dashboard order.
var Categories = []Category{
	CategoryPurchase,
	CategoryCart,
	CategorySearch,
	CategoryRepeatVisit,
	CategoryPerformance,
}

// Valid reports whether the category is one of the five known variants.
func (c Category) Valid() bool {
	switch c {
	case CategoryPurchase, CategoryCart, CategorySearch, CategoryRepeatVisit, CategoryPerformance:
		return true
	}
	return false
}

// Priority buckets a task's urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Customer is the identity snapshot attached to a task. Known is false when
// the resolver found no directory match; such tasks render the placeholder
// rather than failing the request.
type Customer struct {
	Known   bool   `json:"known"`
	UserID  string `json:"user_id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// UnknownCustomer is the placeholder rendered when identity resolution finds
// no match.
func UnknownCustomer() Customer {
	return Customer{Name: "Unknown Customer"}
}

// Envelope carries the fields shared by every task variant. CreatedAt is
// derived from the underlying event timestamp, never wall clock, so the same
// events always reproduce the same task.
type Envelope struct {
	ID         string      `json:"id"`
	Category   Category    `json:"category"`
	Priority   Priority    `json:"priority"`
	SessionID  string      `json:"session_id,omitempty"`
	LocationID string      `json:"location_id,omitempty"`
	Customer   Customer    `json:"customer"`
	CreatedAt  time.Time   `json:"created_at"`
	Completion *Completion `json:"completion,omitempty"`
}

// Completion is the overlay state joined into list responses by task id.
type Completion struct {
	Completed   bool       `json:"completed"`
	Notes       string     `json:"notes"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
}

// EventTime converts an event timestamp in microseconds since epoch to UTC.
func EventTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}
