package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrInvalidItem = errors.New("invalid cart item")
)

// DefaultShipping is the flat per-order shipping charge.
var DefaultShipping = decimal.RequireFromString("5.99")

var hundred = decimal.NewFromInt(100)

type Total struct {
	Subtotal    decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
	AmountMinor int64
}

// Calculator recomputes order totals from line items. Client-side totals are
// never trusted.
type Calculator struct {
	Shipping decimal.Decimal
}

func NewCalculator(shipping decimal.Decimal) Calculator {
	return Calculator{Shipping: shipping}
}

func (c Calculator) Compute(items []cart.Item) (Total, error) {
	if len(items) == 0 {
		return Total{}, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 || it.Price.IsNegative() {
			return Total{}, ErrInvalidItem
		}
	}

	subtotal := cart.Subtotal(items)
	total := subtotal.Add(c.Shipping)

	return Total{
		Subtotal:    subtotal,
		Shipping:    c.Shipping,
		Total:       total.Round(2),
		AmountMinor: ToMinorUnits(total),
	}, nil
}

// ToMinorUnits converts a currency amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
