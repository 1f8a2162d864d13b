package httpapi

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/citation"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

type fakeCheckout struct {
	paymentIntentFunc   func(ctx context.Context, in checkout.PaymentIntentInput) (checkout.PaymentIntentResult, error)
	checkoutSessionFunc func(ctx context.Context, in checkout.CheckoutSessionInput) (payment.CheckoutSession, error)

	intentInputs  []checkout.PaymentIntentInput
	sessionInputs []checkout.CheckoutSessionInput
}

func (f *fakeCheckout) CreatePaymentIntent(ctx context.Context, in checkout.PaymentIntentInput) (checkout.PaymentIntentResult, error) {
	f.intentInputs = append(f.intentInputs, in)
	if f.paymentIntentFunc != nil {
		return f.paymentIntentFunc(ctx, in)
	}
	return checkout.PaymentIntentResult{}, nil
}

func (f *fakeCheckout) CreateCheckoutSession(ctx context.Context, in checkout.CheckoutSessionInput) (payment.CheckoutSession, error) {
	f.sessionInputs = append(f.sessionInputs, in)
	if f.checkoutSessionFunc != nil {
		return f.checkoutSessionFunc(ctx, in)
	}
	return payment.CheckoutSession{}, nil
}

type fakeOrderReader struct {
	orders map[string]*order.Order
	err    error
}

func (f *fakeOrderReader) GetByPaymentIntentID(_ context.Context, pi string) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[pi]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

type fakeVerifier struct {
	event payment.Event
	err   error

	gotPayload   []byte
	gotSignature string
}

func (f *fakeVerifier) VerifyEvent(payload []byte, sig string) (payment.Event, error) {
	f.gotPayload = payload
	f.gotSignature = sig
	return f.event, f.err
}

type fakeProcessor struct {
	err     error
	handled []payment.Event
	metas   []events.Metadata
}

func (f *fakeProcessor) Handle(_ context.Context, ev payment.Event, meta events.Metadata) error {
	f.handled = append(f.handled, ev)
	f.metas = append(f.metas, meta)
	return f.err
}

type testDeps struct {
	checkout  *fakeCheckout
	carts     *cart.MemoryStorage
	orders    *fakeOrderReader
	verifier  *fakeVerifier
	processor *fakeProcessor
}

func newTestRouter(secret []byte) (http.Handler, *testDeps) {
	d := &testDeps{
		checkout:  &fakeCheckout{},
		carts:     cart.NewMemoryStorage(),
		orders:    &fakeOrderReader{orders: map[string]*order.Order{}},
		verifier:  &fakeVerifier{},
		processor: &fakeProcessor{},
	}
	router := NewRouter(Deps{
		Checkout:         d.checkout,
		Carts:            d.carts,
		Orders:           d.orders,
		Citations:        citation.NewGenerator(nil),
		Verifier:         d.verifier,
		Webhooks:         d.processor,
		JWTSecret:        secret,
		CORSAllowOrigins: []string{"*"},
	})
	return router, d
}
