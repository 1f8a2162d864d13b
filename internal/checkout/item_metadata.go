package checkout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// Stripe caps metadata values at 500 characters.
const maxMetadataValue = 500

// encodeItems renders items as "id:qty:price" joined by commas. Whole entries
// are dropped from the end when the result would not fit in one metadata value.
func encodeItems(items []cart.Item) (string, bool) {
	var b strings.Builder
	for i, it := range items {
		entry := fmt.Sprintf("%d:%d:%s", it.ID, it.Quantity, it.Price.StringFixed(2))
		sep := 0
		if i > 0 {
			sep = 1
		}
		if b.Len()+sep+len(entry) > maxMetadataValue {
			return b.String(), true
		}
		if sep == 1 {
			b.WriteByte(',')
		}
		b.WriteString(entry)
	}
	return b.String(), false
}

func decodeItems(s string) ([]order.Item, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var items []order.Item
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed item entry %q", entry)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item id %q: %w", parts[0], err)
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("item quantity %q: %w", parts[1], err)
		}
		price, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("item price %q: %w", parts[2], err)
		}
		items = append(items, order.Item{ProductID: id, Quantity: qty, Price: price})
	}
	return items, nil
}
