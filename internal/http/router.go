package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/citation"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

const serviceName = "storefront-service"

type Deps struct {
	Checkout  Checkout
	Carts     cart.Storage
	Orders    OrderReader
	Citations *citation.Generator
	Verifier  payment.WebhookVerifier
	Webhooks  WebhookProcessor
	Logger    *zap.Logger

	// Empty disables bearer token verification.
	JWTSecret        []byte
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(d.CORSAllowOrigins))

	r.Get("/health", healthHandler)

	checkoutH := NewCheckoutHandler(d.Checkout, logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(d.JWTSecret))
		r.Post("/payment-intents", checkoutH.CreatePaymentIntent)
		r.Post("/checkout-sessions", checkoutH.CreateCheckoutSession)
	})

	cartH := NewCartHandler(d.Carts, logger)
	r.Route("/carts/{cartId}", func(r chi.Router) {
		r.Get("/", cartH.GetCart)
		r.Delete("/", cartH.ClearCart)
		r.Post("/items", cartH.AddItem)
		r.Put("/items/{itemId}", cartH.UpdateQuantity)
		r.Delete("/items/{itemId}", cartH.RemoveItem)
	})

	r.Get("/orders/by-payment-intent/{paymentIntentId}", NewOrderHandler(d.Orders).GetByPaymentIntent)
	r.Post("/citations", NewCitationHandler(d.Citations).Generate)
	r.Post("/webhooks/stripe", NewWebhookHandler(d.Verifier, d.Webhooks, logger).Receive)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
