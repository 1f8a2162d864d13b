package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
)

type PaymentIntentInput struct {
	Items           []cart.Item
	ShippingAddress *order.ShippingAddress
	UserID          string
	Email           string
	Meta            events.Metadata
}

type Outcome int

const (
	// OutcomeComplete: the intent exists and the order was recorded.
	OutcomeComplete Outcome = iota
	// OutcomeOrderWriteFailed: the intent exists but the order row could not be
	// written. Payment can still go ahead; the webhook reconciler rebuilds the
	// order from the intent.
	OutcomeOrderWriteFailed
)

type PaymentIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
	OrderID         string
	Total           decimal.Decimal
	AmountMinor     int64
	Outcome         Outcome
	OrderErr        error
}

func (r PaymentIntentResult) OrderRecorded() bool {
	return r.Outcome == OutcomeComplete
}

// CreatePaymentIntent prices the cart server-side, opens a payment intent for it
// and records a pending order. Only validation and processor failures are
// returned as errors.
func (s *Service) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (PaymentIntentResult, error) {
	if len(in.Items) == 0 {
		return PaymentIntentResult{}, ErrEmptyCart
	}
	if in.ShippingAddress == nil || strings.TrimSpace(in.Email) == "" {
		return PaymentIntentResult{}, ErrMissingShipping
	}

	totals, err := s.calc.Compute(in.Items)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidItem) {
			return PaymentIntentResult{}, ErrInvalidItem
		}
		return PaymentIntentResult{}, ErrEmptyCart
	}

	var customerID string
	if in.UserID != "" {
		customerID, err = s.customers.Resolve(ctx, in.UserID, in.Email, in.ShippingAddress)
		if err != nil {
			return PaymentIntentResult{}, err
		}
	}

	pi, err := s.gateway.CreatePaymentIntent(ctx, payment.PaymentIntentRequest{
		AmountMinor:  totals.AmountMinor,
		Currency:     s.currency,
		CustomerID:   customerID,
		ReceiptEmail: in.Email,
		Shipping:     in.ShippingAddress,
		Metadata:     intentMetadata(in.UserID, in.Items),
	})
	if err != nil {
		return PaymentIntentResult{}, fmt.Errorf("create payment intent: %w", err)
	}

	res := PaymentIntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Total:           totals.Total,
		AmountMinor:     totals.AmountMinor,
	}

	o := &order.Order{
		UserID:          in.UserID,
		Email:           in.Email,
		PaymentIntentID: pi.ID,
		Status:          order.StatusPending,
		TotalAmount:     totals.Total,
		ShippingAddress: *in.ShippingAddress,
		Items:           snapshotItems(in.Items),
	}
	if err := recordOrder(ctx, s.orders, o, s.logger); err != nil {
		s.logger.Error("order write failed after payment intent was created",
			zap.String("payment_intent_id", pi.ID),
			zap.String("user_id", in.UserID),
			zap.Error(err),
		)
		res.Outcome = OutcomeOrderWriteFailed
		res.OrderErr = err
		return res, nil
	}

	res.OrderID = o.ID
	s.logger.Info("payment intent created",
		zap.String("order_id", o.ID),
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount", totals.AmountMinor),
	)
	s.publishOrderCreated(ctx, o, in.Meta)
	return res, nil
}

func intentMetadata(userID string, items []cart.Item) map[string]string {
	if userID == "" {
		userID = guestUserID
	}
	encoded, truncated := encodeItems(items)

	meta := map[string]string{
		"user_id":    userID,
		"items":      encoded,
		"item_count": strconv.Itoa(len(items)),
	}
	if truncated {
		meta["items_truncated"] = "true"
	}
	return meta
}

func snapshotItems(items []cart.Item) []order.Item {
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		out = append(out, order.Item{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return out
}
