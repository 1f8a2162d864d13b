package checkout

import (
	"context"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/profile"
)

type fakeGateway struct {
	mu sync.Mutex

	createCustomerFunc func(ctx context.Context, req payment.CustomerRequest) (string, error)
	createIntentFunc   func(ctx context.Context, req payment.PaymentIntentRequest) (payment.PaymentIntent, error)
	createSessionFunc  func(ctx context.Context, req payment.CheckoutSessionRequest) (payment.CheckoutSession, error)

	customerReqs []payment.CustomerRequest
	intentReqs   []payment.PaymentIntentRequest
	sessionReqs  []payment.CheckoutSessionRequest
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, req payment.CustomerRequest) (string, error) {
	f.mu.Lock()
	f.customerReqs = append(f.customerReqs, req)
	f.mu.Unlock()
	if f.createCustomerFunc != nil {
		return f.createCustomerFunc(ctx, req)
	}
	return "cus_new", nil
}

func (f *fakeGateway) CreatePaymentIntent(ctx context.Context, req payment.PaymentIntentRequest) (payment.PaymentIntent, error) {
	f.mu.Lock()
	f.intentReqs = append(f.intentReqs, req)
	f.mu.Unlock()
	if f.createIntentFunc != nil {
		return f.createIntentFunc(ctx, req)
	}
	return payment.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionRequest) (payment.CheckoutSession, error) {
	f.mu.Lock()
	f.sessionReqs = append(f.sessionReqs, req)
	f.mu.Unlock()
	if f.createSessionFunc != nil {
		return f.createSessionFunc(ctx, req)
	}
	return payment.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

type fakeOrders struct {
	mu sync.Mutex

	createFunc       func(ctx context.Context, o *order.Order) error
	getByIntentFunc  func(ctx context.Context, paymentIntentID string) (*order.Order, error)
	updateStatusFunc func(ctx context.Context, paymentIntentID string, status order.Status) (string, error)

	created []*order.Order
}

func (f *fakeOrders) Create(ctx context.Context, o *order.Order) error {
	if f.createFunc != nil {
		if err := f.createFunc(ctx, o); err != nil {
			return err
		}
	}
	if o.ID == "" {
		o.ID = "order-1"
	}
	f.mu.Lock()
	f.created = append(f.created, o)
	f.mu.Unlock()
	return nil
}

func (f *fakeOrders) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*order.Order, error) {
	if f.getByIntentFunc != nil {
		return f.getByIntentFunc(ctx, paymentIntentID)
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrders) UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status order.Status) (string, error) {
	if f.updateStatusFunc != nil {
		return f.updateStatusFunc(ctx, paymentIntentID, status)
	}
	return "", order.ErrNotFound
}

// fakeProfiles keeps customer ids in memory with the same claim-once rule as
// the Postgres repository.
type fakeProfiles struct {
	mu        sync.Mutex
	customers map[string]string
	missing   map[string]bool
	getErr    error
	claimErr  error

	subscriptions map[string]string
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		customers:     map[string]string{},
		missing:       map[string]bool{},
		subscriptions: map[string]string{},
	}
}

func (f *fakeProfiles) GetStripeCustomerID(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	if f.missing[userID] {
		return "", profile.ErrNotFound
	}
	return f.customers[userID], nil
}

func (f *fakeProfiles) ClaimStripeCustomerID(_ context.Context, userID, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return "", f.claimErr
	}
	if f.missing[userID] {
		return "", profile.ErrNotFound
	}
	if existing := f.customers[userID]; existing != "" {
		return existing, nil
	}
	f.customers[userID] = customerID
	return customerID, nil
}

func (f *fakeProfiles) SetSubscription(_ context.Context, userID, planID string, tier profile.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[userID] {
		return profile.ErrNotFound
	}
	f.subscriptions[userID] = planID + ":" + string(tier)
	return nil
}

type fakeEvents struct {
	mu      sync.Mutex
	created []string
	paid    []string
	err     error
}

func (f *fakeEvents) PublishOrderCreated(_ context.Context, o *order.Order, _ events.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, o.ID)
	return f.err
}

func (f *fakeEvents) PublishOrderPaid(_ context.Context, orderID, _ string, _ events.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, orderID)
	return f.err
}

type fakeDedup struct {
	mu      sync.Mutex
	seen    map[string]bool
	seenErr error
}

func (f *fakeDedup) Seen(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[eventID], nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, eventID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[eventID] = true
	return nil
}
