package cart

import "github.com/shopspring/decimal"

// Item is one line in the cart. The catalog entry is copied in at add time so the
// cart can be rendered without another lookup.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Type        string          `json:"type,omitempty"`
	Quantity    int             `json:"quantity"`
}

func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
