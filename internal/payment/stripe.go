package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// StripeGateway talks to Stripe through a per-instance client; nothing touches
// the package-level stripe.Key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway; nil backends means the live Stripe API.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
	}
	params.Context = ctx
	if req.Shipping != nil {
		params.Shipping = &stripe.CustomerShippingParams{
			Name:    stripe.String(req.Shipping.Name),
			Address: addressParams(req.Shipping),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.AmountMinor),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.ReceiptEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Shipping != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name:    stripe.String(req.Shipping.Name),
			Address: addressParams(req.Shipping),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook: %w", err)
	}

	out := Event{ID: ev.ID, Type: EventType(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed, EventPaymentIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.AmountMinor = pi.Amount
		out.ReceiptEmail = pi.ReceiptEmail
		out.Metadata = pi.Metadata
		if pi.Shipping != nil {
			out.Shipping = fromShippingDetails(pi.Shipping)
		}
	case EventCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		out.CheckoutSessionID = s.ID
		out.Metadata = s.Metadata
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decode subscription: %w", err)
		}
		out.SubscriptionID = sub.ID
		out.Metadata = sub.Metadata
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}
	return out, nil
}

func addressParams(a *order.ShippingAddress) *stripe.AddressParams {
	p := &stripe.AddressParams{
		Line1:      stripe.String(a.Line1),
		City:       stripe.String(a.City),
		PostalCode: stripe.String(a.PostalCode),
		Country:    stripe.String(a.Country),
	}
	if a.Line2 != "" {
		p.Line2 = stripe.String(a.Line2)
	}
	if a.State != "" {
		p.State = stripe.String(a.State)
	}
	return p
}

func fromShippingDetails(s *stripe.ShippingDetails) *order.ShippingAddress {
	out := &order.ShippingAddress{Name: s.Name}
	if s.Address != nil {
		out.Line1 = s.Address.Line1
		out.Line2 = s.Address.Line2
		out.City = s.Address.City
		out.State = s.Address.State
		out.PostalCode = s.Address.PostalCode
		out.Country = s.Address.Country
	}
	return out
}
