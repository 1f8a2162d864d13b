package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Item is a snapshot of the purchased product at order time.
type Item struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              string          `json:"orderId"`
	UserID          string          `json:"userId,omitempty"`
	Email           string          `json:"email"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []Item          `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
