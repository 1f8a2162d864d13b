package payment

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// Gateway is the payment processor as seen by the checkout flows.
type Gateway interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
}

// WebhookVerifier authenticates processor callbacks.
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}

type CustomerRequest struct {
	Email    string
	Shipping *order.ShippingAddress
	Metadata map[string]string
}

type PaymentIntentRequest struct {
	AmountMinor  int64
	Currency     string
	CustomerID   string
	ReceiptEmail string
	Shipping     *order.ShippingAddress
	Metadata     map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type CheckoutSessionRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type EventType string

const (
	EventPaymentIntentSucceeded   EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed      EventType = "payment_intent.payment_failed"
	EventPaymentIntentCanceled    EventType = "payment_intent.canceled"
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventSubscriptionDeleted      EventType = "customer.subscription.deleted"
)

// Event is the subset of a verified processor event the service reacts to.
// Object fields are filled according to Type.
type Event struct {
	ID   string
	Type EventType

	PaymentIntentID string
	AmountMinor     int64
	ReceiptEmail    string
	Shipping        *order.ShippingAddress

	CheckoutSessionID string
	SubscriptionID    string
	CustomerID        string

	Metadata map[string]string
}
