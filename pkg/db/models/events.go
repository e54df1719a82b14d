package models

import "github.com/shopspring/decimal"

// The event tables are populated by the ingestion pipeline and are strictly
// read-only here. Every table carries the same tenant/session spine:
// tenant_id scopes all queries, session_id correlates events of different
// types, event_date is calendar-day granularity for range filters, and
// event_timestamp is microseconds since epoch from the original hit.

// PageView is one page hit.
type PageView struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       string  `gorm:"column:tenant_id;index:idx_page_view_tenant_session"`
	EventDate      string  `gorm:"column:event_date"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
	SessionID      string  `gorm:"column:session_id;index:idx_page_view_tenant_session"`
	WebUserID      *string `gorm:"column:user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
	PageTitle      string  `gorm:"column:page_title"`
	PageLocation   string  `gorm:"column:page_location"`
}

func (PageView) TableName() string { return "page_view" }

// AddToCart is one add-to-cart hit. ProductItems holds the raw JSON items
// payload; the flat item columns are the fallback when that payload is
// malformed.
type AddToCart struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       string          `gorm:"column:tenant_id;index:idx_add_to_cart_tenant_session"`
	EventDate      string          `gorm:"column:event_date"`
	EventTimestamp int64           `gorm:"column:event_timestamp"`
	SessionID      string          `gorm:"column:session_id;index:idx_add_to_cart_tenant_session"`
	WebUserID      *string         `gorm:"column:user_id"`
	CustomerID     *string         `gorm:"column:customer_id"`
	BranchID       string          `gorm:"column:branch_id"`
	ProductItems   string          `gorm:"column:product_items"`
	ItemID         string          `gorm:"column:item_id"`
	ItemName       string          `gorm:"column:item_name"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric"`
	Quantity       int             `gorm:"column:quantity"`
}

func (AddToCart) TableName() string { return "add_to_cart" }

// Purchase is one purchase hit. Revenue arrives as text from the pipeline and
// is parsed (defaulting to zero) at derivation time.
type Purchase struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       string  `gorm:"column:tenant_id;index:idx_purchase_tenant_session"`
	EventDate      string  `gorm:"column:event_date"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
	SessionID      string  `gorm:"column:session_id;index:idx_purchase_tenant_session"`
	WebUserID      *string `gorm:"column:user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
	TransactionID  *string `gorm:"column:transaction_id"`
	Revenue        string  `gorm:"column:revenue"`
	ProductItems   string  `gorm:"column:product_items"`
}

func (Purchase) TableName() string { return "purchase" }

// ViewSearchResults is one search that returned results.
type ViewSearchResults struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       string  `gorm:"column:tenant_id"`
	EventDate      string  `gorm:"column:event_date"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
	SessionID      string  `gorm:"column:session_id"`
	WebUserID      *string `gorm:"column:user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
	SearchTerm     string  `gorm:"column:search_term"`
}

func (ViewSearchResults) TableName() string { return "view_search_results" }

// NoSearchResults is one search that returned nothing.
type NoSearchResults struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       string  `gorm:"column:tenant_id"`
	EventDate      string  `gorm:"column:event_date"`
	EventTimestamp int64   `gorm:"column:event_timestamp"`
	SessionID      string  `gorm:"column:session_id"`
	WebUserID      *string `gorm:"column:user_id"`
	CustomerID     *string `gorm:"column:customer_id"`
	BranchID       string  `gorm:"column:branch_id"`
	SearchTerm     string  `gorm:"column:search_term"`
}

func (NoSearchResults) TableName() string { return "no_search_results" }
