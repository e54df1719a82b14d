package tasks

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseProductItemsDecodesPayload(t *testing.T) {
	raw := `[{"item_id":"SKU-1","item_name":"Copper Pipe","price":12.50,"quantity":4}]`
	items := ParseProductItems(raw, nil)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ItemID != "SKU-1" || items[0].Quantity != 4 {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if !items[0].Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected price: %s", items[0].Price)
	}
}

func TestParseProductItemsStringNumbers(t *testing.T) {
	raw := `[{"item_id":"SKU-2","item_name":"Fitting","price":"3.99","quantity":"2"}]`
	items := ParseProductItems(raw, nil)
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected quoted numbers to parse, got %+v", items)
	}
}

func TestParseProductItemsMalformedUsesFallback(t *testing.T) {
	fallback := &ProductItem{ItemID: "SKU-9", ItemName: "Valve", Price: decimal.NewFromInt(7), Quantity: 1}
	items := ParseProductItems("{not json", fallback)
	if len(items) != 1 || items[0].ItemID != "SKU-9" {
		t.Fatalf("expected fallback item, got %+v", items)
	}
}

func TestParseProductItemsMalformedWithoutFallback(t *testing.T) {
	items := ParseProductItems("{not json", nil)
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %+v", items)
	}
	if items == nil {
		t.Fatal("expected non-nil empty slice")
	}
}

func TestParseRevenueDefaultsToZero(t *testing.T) {
	if !ParseRevenue("").IsZero() {
		t.Fatal("expected empty revenue to be zero")
	}
	if !ParseRevenue("garbage").IsZero() {
		t.Fatal("expected unparseable revenue to be zero")
	}
	if !ParseRevenue("1250.75").Equal(decimal.RequireFromString("1250.75")) {
		t.Fatal("expected valid revenue to parse")
	}
}
