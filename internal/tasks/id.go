package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

var idPrefixes = map[Category]string{
	CategoryPurchase:    "PUR",
	CategoryCart:        "CART",
	CategorySearch:      "SRCH",
	CategoryRepeatVisit: "RVST",
	CategoryPerformance: "PERF",
}

// ID derives the task identifier from the tenant, category and the stable
// natural key of the underlying event group (transaction id, session id,
// session+term, page location). The same inputs always produce the same id,
// which is what keeps the completion overlay valid across re-derivation.
func ID(tenantID string, category Category, naturalKey string) string {
	sum := sha256.Sum256([]byte(tenantID + "|" + string(category) + "|" + naturalKey))
	prefix, ok := idPrefixes[category]
	if !ok {
		prefix = "TASK"
	}
	return prefix + "_" + hex.EncodeToString(sum[:8])
}

// SearchKey builds the natural key for a search task from its session and
// normalized term.
func SearchKey(sessionID, term string) string {
	return sessionID + "|" + strings.ToLower(strings.TrimSpace(term))
}
