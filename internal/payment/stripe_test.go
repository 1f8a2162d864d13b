package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const testWebhookSecret = "whsec_test"

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeGateway("sk_test_123", testWebhookSecret, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func readForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	form, err := url.ParseQuery(string(body))
	require.NoError(t, err)
	return form
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	var form url.Values
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		form = readForm(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`))
	})

	pi, err := gw.CreatePaymentIntent(context.Background(), PaymentIntentRequest{
		AmountMinor:  3099,
		Currency:     "usd",
		CustomerID:   "cus_1",
		ReceiptEmail: "ada@example.com",
		Shipping:     &order.ShippingAddress{Name: "Ada", Line1: "1 Main St", City: "Boston", PostalCode: "02101", Country: "US"},
		Metadata:     map[string]string{"user_id": "guest"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, "pi_123_secret_abc", pi.ClientSecret)

	assert.Equal(t, "3099", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "cus_1", form.Get("customer"))
	assert.Equal(t, "ada@example.com", form.Get("receipt_email"))
	assert.Equal(t, "Boston", form.Get("shipping[address][city]"))
	assert.Equal(t, "guest", form.Get("metadata[user_id]"))
	assert.Empty(t, form.Get("shipping[address][line2]"))
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	var form url.Values
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		form = readForm(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_1"}`))
	})

	s, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{
		CustomerID: "cus_1",
		PriceID:    "price_monthly",
		SuccessURL: "https://example.org/ok?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://example.org/cancel",
		Metadata:   map[string]string{"user_id": "u1", "plan_id": "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", s.URL)

	assert.Equal(t, "subscription", form.Get("mode"))
	assert.Equal(t, "price_monthly", form.Get("line_items[0][price]"))
	assert.Equal(t, "monthly", form.Get("subscription_data[metadata][plan_id]"))
	assert.Equal(t, "u1", form.Get("metadata[user_id]"))
	assert.Contains(t, form.Get("success_url"), "{CHECKOUT_SESSION_ID}")
}

func TestStripeGateway_CreateCustomerError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad email"}}`))
	})

	_, err := gw.CreateCustomer(context.Background(), CustomerRequest{Email: "nope"})
	require.Error(t, err)
}

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestStripeGateway_VerifyEvent(t *testing.T) {
	gw := NewStripeGateway("sk_test_123", testWebhookSecret, nil)

	t.Run("payment intent succeeded", func(t *testing.T) {
		header, body := signed(t, `{
			"id": "evt_1",
			"object": "event",
			"type": "payment_intent.succeeded",
			"data": {"object": {
				"id": "pi_9",
				"object": "payment_intent",
				"amount": 3099,
				"receipt_email": "ada@example.com",
				"metadata": {"user_id": "guest", "items": "1:2:10.00"},
				"shipping": {"name": "Ada", "address": {"line1": "1 Main St", "city": "Boston", "postal_code": "02101", "country": "US"}}
			}}
		}`)

		ev, err := gw.VerifyEvent(body, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, EventPaymentIntentSucceeded, ev.Type)
		assert.Equal(t, "pi_9", ev.PaymentIntentID)
		assert.Equal(t, int64(3099), ev.AmountMinor)
		assert.Equal(t, "1:2:10.00", ev.Metadata["items"])
		require.NotNil(t, ev.Shipping)
		assert.Equal(t, "Boston", ev.Shipping.City)
	})

	t.Run("checkout session completed", func(t *testing.T) {
		header, body := signed(t, `{
			"id": "evt_2",
			"object": "event",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_1", "object": "checkout.session", "customer": "cus_1", "metadata": {"user_id": "u1", "plan_id": "annual"}}}
		}`)

		ev, err := gw.VerifyEvent(body, header)
		require.NoError(t, err)
		assert.Equal(t, "cs_1", ev.CheckoutSessionID)
		assert.Equal(t, "cus_1", ev.CustomerID)
		assert.Equal(t, "annual", ev.Metadata["plan_id"])
	})

	t.Run("payment intent canceled", func(t *testing.T) {
		header, body := signed(t, `{
			"id": "evt_4",
			"object": "event",
			"type": "payment_intent.canceled",
			"data": {"object": {"id": "pi_10", "object": "payment_intent", "amount": 500, "metadata": {"user_id": "guest"}}}
		}`)

		ev, err := gw.VerifyEvent(body, header)
		require.NoError(t, err)
		assert.Equal(t, EventPaymentIntentCanceled, ev.Type)
		assert.Equal(t, "pi_10", ev.PaymentIntentID)
		assert.Nil(t, ev.Shipping)
	})

	t.Run("subscription deleted", func(t *testing.T) {
		header, body := signed(t, `{
			"id": "evt_5",
			"object": "event",
			"type": "customer.subscription.deleted",
			"data": {"object": {"id": "sub_1", "object": "subscription", "customer": "cus_1", "metadata": {"user_id": "u1", "plan_id": "monthly"}}}
		}`)

		ev, err := gw.VerifyEvent(body, header)
		require.NoError(t, err)
		assert.Equal(t, EventSubscriptionDeleted, ev.Type)
		assert.Equal(t, "sub_1", ev.SubscriptionID)
		assert.Equal(t, "cus_1", ev.CustomerID)
		assert.Equal(t, "u1", ev.Metadata["user_id"])
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := gw.VerifyEvent([]byte(`{"id":"evt_3"}`), "t=1,v1=deadbeef")
		require.Error(t, err)
	})
}
