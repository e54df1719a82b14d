package tasks

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	purchaseHighRevenue     = decimal.NewFromInt(1000)
	purchaseRushRevenue     = decimal.NewFromInt(500)
	purchaseLowRevenue      = decimal.NewFromInt(100)
	cartHighValue           = decimal.NewFromInt(500)
	cartRushValue           = decimal.NewFromInt(200)
	cartLowValue            = decimal.NewFromInt(50)
	purchaseStaleAge        = 168 * time.Hour
	cartStaleAge            = 72 * time.Hour
	recentAge               = 24 * time.Hour
	repeatVisitHighPages    = 5
	repeatVisitMinimumPages = 3
)

// PurchasePriority scores a purchase follow-up by revenue and how long ago
// the purchase happened. High rules win over low when both match.
func PurchasePriority(revenue decimal.Decimal, age time.Duration) Priority {
	switch {
	case revenue.GreaterThan(purchaseHighRevenue):
		return PriorityHigh
	case revenue.GreaterThan(purchaseRushRevenue) && age < recentAge:
		return PriorityHigh
	case revenue.LessThan(purchaseLowRevenue) || age > purchaseStaleAge:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// CartPriority scores an abandoned cart by its value and age.
func CartPriority(value decimal.Decimal, age time.Duration) Priority {
	switch {
	case value.GreaterThan(cartHighValue):
		return PriorityHigh
	case value.GreaterThan(cartRushValue) && age < recentAge:
		return PriorityHigh
	case value.LessThan(cartLowValue) || age > cartStaleAge:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// SearchType distinguishes the two search task sub-types.
type SearchType string

const (
	SearchNoResults    SearchType = "no_results"
	SearchNoConversion SearchType = "no_conversion"
)

// Valid reports whether the value is a known search sub-type.
func (s SearchType) Valid() bool {
	return s == SearchNoResults || s == SearchNoConversion
}

// SearchPriority scores a search task by how often the term was tried within
// its session; the thresholds differ per sub-type.
func SearchPriority(subType SearchType, count int) Priority {
	if subType == SearchNoResults {
		switch {
		case count > 3:
			return PriorityHigh
		case count <= 1:
			return PriorityLow
		default:
			return PriorityMedium
		}
	}
	switch {
	case count > 5:
		return PriorityHigh
	case count <= 2:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// RepeatVisitPriority scores a browsing session by distinct pages viewed.
// The literal thresholds are preserved: >5 high, exactly 3 low, 4-5 medium.
func RepeatVisitPriority(distinctPages int) Priority {
	switch {
	case distinctPages > repeatVisitHighPages:
		return PriorityHigh
	case distinctPages <= repeatVisitMinimumPages:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// BouncePagePriority scores a page-level bounce alert by how many distinct
// sessions bounced on that exact page.
func BouncePagePriority(bounceSessions int) Priority {
	switch {
	case bounceSessions > 10:
		return PriorityHigh
	case bounceSessions > 5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
