package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const (
	OrderCreatedEventName = "OrderCreated"
	OrderPaidEventName    = "OrderPaid"
)

type OrderItem struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID         string      `json:"orderId"`
	UserID          string      `json:"userId,omitempty"`
	PaymentIntentID string      `json:"paymentIntentId"`
	Items           []OrderItem `json:"items"`
	TotalAmount     string      `json:"totalAmount"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type OrderPaidPayload struct {
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	PaidAt          time.Time `json:"paidAt"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]
type OrderPaidEnvelope = EventEnvelope[OrderPaidPayload]

func BuildOrderCreatedEnvelope(o *order.Order, seq int64, meta Metadata) OrderCreatedEnvelope {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}

	return wrap(OrderCreatedEventName, o.ID, seq, meta, OrderCreatedPayload{
		OrderID:         o.ID,
		UserID:          o.UserID,
		PaymentIntentID: o.PaymentIntentID,
		Items:           items,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		CreatedAt:       o.CreatedAt,
	})
}

func BuildOrderPaidEnvelope(orderID, paymentIntentID string, seq int64, meta Metadata) OrderPaidEnvelope {
	return wrap(OrderPaidEventName, orderID, seq, meta, OrderPaidPayload{
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		PaidAt:          time.Now().UTC(),
	})
}
