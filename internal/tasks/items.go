package tasks

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductItem is one line of a cart or purchase payload.
type ProductItem struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type rawProductItem struct {
	ItemID   string      `json:"item_id"`
	ItemName string      `json:"item_name"`
	Price    json.Number `json:"price"`
	Quantity json.Number `json:"quantity"`
}

// ParseProductItems decodes the stored items JSON blob. A malformed blob is
// recovered locally: the flat-column fallback is used when it carries data,
// otherwise an empty list is returned. The task is still emitted either way;
// one bad row must never hide a page of valid tasks.
func ParseProductItems(raw string, fallback *ProductItem) []ProductItem {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		var decoded []rawProductItem
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			items := make([]ProductItem, 0, len(decoded))
			for _, d := range decoded {
				items = append(items, ProductItem{
					ItemID:   d.ItemID,
					ItemName: d.ItemName,
					Price:    parseDecimal(string(d.Price)),
					Quantity: parseInt(string(d.Quantity)),
				})
			}
			return items
		}
	}
	if fallback != nil && (fallback.ItemID != "" || fallback.ItemName != "") {
		return []ProductItem{*fallback}
	}
	return []ProductItem{}
}

// ParseRevenue parses a stored revenue string, defaulting to zero when the
// value is missing or unparseable.
func ParseRevenue(raw string) decimal.Decimal {
	return parseDecimal(raw)
}

func parseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(raw string) int {
	d := parseDecimal(raw)
	return int(d.IntPart())
}
