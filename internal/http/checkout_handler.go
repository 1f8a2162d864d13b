package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

// processor round trips dominate these handlers
const checkoutTimeout = 15 * time.Second

type Checkout interface {
	CreatePaymentIntent(ctx context.Context, in checkout.PaymentIntentInput) (checkout.PaymentIntentResult, error)
	CreateCheckoutSession(ctx context.Context, in checkout.CheckoutSessionInput) (payment.CheckoutSession, error)
}

type CheckoutHandler struct {
	svc    Checkout
	logger *zap.Logger
}

func NewCheckoutHandler(svc Checkout, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, logger: logger}
}

type paymentIntentRequest struct {
	Items           []cart.Item            `json:"items"`
	ShippingAddress *order.ShippingAddress `json:"shippingAddress"`
	UserID          string                 `json:"userId"`
	Email           string                 `json:"email"`
}

type paymentIntentResponse struct {
	ClientSecret string  `json:"clientSecret"`
	OrderID      string  `json:"orderId,omitempty"`
	Total        float64 `json:"total"`
}

// CreatePaymentIntent ignores any client-supplied total; the cart is priced here.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var body paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// an unreadable body is an unexpected failure here, not a validation error
		h.logger.Error("decode payment intent request failed", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		writeError(w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	userID, email := identity(r.Context(), body.UserID, body.Email)

	ctx, cancel := context.WithTimeout(r.Context(), checkoutTimeout)
	defer cancel()

	res, err := h.svc.CreatePaymentIntent(ctx, checkout.PaymentIntentInput{
		Items:           body.Items,
		ShippingAddress: body.ShippingAddress,
		UserID:          userID,
		Email:           email,
		Meta:            requestMeta(r),
	})
	if err != nil {
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		h.logger.Error("create payment intent failed", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		writeError(w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	if !res.OrderRecorded() {
		// payment can proceed; the webhook rebuilds the order
		h.logger.Warn("payment intent created without an order row",
			zap.String("payment_intent_id", res.PaymentIntentID),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
	}

	writeJSON(w, http.StatusOK, paymentIntentResponse{
		ClientSecret: res.ClientSecret,
		OrderID:      res.OrderID,
		Total:        res.Total.InexactFloat64(),
	})
}

type checkoutSessionRequest struct {
	PlanID string `json:"planId"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var body checkoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Error("decode checkout session request failed", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	userID, email := identity(r.Context(), body.UserID, body.Email)

	ctx, cancel := context.WithTimeout(r.Context(), checkoutTimeout)
	defer cancel()

	session, err := h.svc.CreateCheckoutSession(ctx, checkout.CheckoutSessionInput{
		PlanID: body.PlanID,
		UserID: userID,
		Email:  email,
	})
	if err != nil {
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		h.logger.Error("create checkout session failed", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, checkoutSessionResponse{SessionID: session.ID, URL: session.URL})
}

// identity prefers the verified token over the request body.
func identity(ctx context.Context, userID, email string) (string, string) {
	if c := middleware.GetClaims(ctx); c != nil {
		userID = c.Subject
		if strings.TrimSpace(email) == "" {
			email = c.Email
		}
	}
	return userID, email
}

func requestMeta(r *http.Request) events.Metadata {
	return events.Metadata{CorrelationID: middleware.GetCorrelationID(r.Context())}
}
