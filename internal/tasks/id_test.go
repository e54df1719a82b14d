package tasks

import (
	"strings"
	"testing"
)

func TestIDStableAcrossDerivations(t *testing.T) {
	first := ID("tenant-a", CategoryCart, "sess-1")
	second := ID("tenant-a", CategoryCart, "sess-1")
	if first != second {
		t.Fatalf("expected stable id, got %s then %s", first, second)
	}
}

func TestIDCategoryPrefixes(t *testing.T) {
	cases := map[Category]string{
		CategoryPurchase:    "PUR_",
		CategoryCart:        "CART_",
		CategorySearch:      "SRCH_",
		CategoryRepeatVisit: "RVST_",
		CategoryPerformance: "PERF_",
	}
	for category, prefix := range cases {
		id := ID("tenant-a", category, "key")
		if !strings.HasPrefix(id, prefix) {
			t.Fatalf("expected %s prefix for %s, got %s", prefix, category, id)
		}
	}
}

func TestIDVariesByTenant(t *testing.T) {
	if ID("tenant-a", CategoryCart, "sess-1") == ID("tenant-b", CategoryCart, "sess-1") {
		t.Fatal("expected different tenants to produce different ids")
	}
}

func TestIDVariesByCategory(t *testing.T) {
	if ID("tenant-a", CategoryCart, "sess-1") == ID("tenant-a", CategoryRepeatVisit, "sess-1") {
		t.Fatal("expected different categories to produce different ids")
	}
}

func TestSearchKeyNormalizesTerm(t *testing.T) {
	if SearchKey("sess-1", "  Copper PIPE  ") != SearchKey("sess-1", "copper pipe") {
		t.Fatal("expected search key to normalize case and whitespace")
	}
	if SearchKey("sess-1", "copper pipe") == SearchKey("sess-2", "copper pipe") {
		t.Fatal("expected search key to vary by session")
	}
}
