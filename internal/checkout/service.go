package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/profile"
)

const guestUserID = "guest"

// OrderEvents publishes order lifecycle events. Publishing is best effort.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, o *order.Order, meta events.Metadata) error
	PublishOrderPaid(ctx context.Context, orderID, paymentIntentID string, meta events.Metadata) error
}

type Config struct {
	Currency string
	Shipping decimal.Decimal
	SiteURL  string
	Plans    []Plan
}

// Service runs the one-off purchase and subscription checkout flows.
type Service struct {
	calc      pricing.Calculator
	gateway   payment.Gateway
	orders    order.Repository
	customers *CustomerResolver
	events    OrderEvents
	plans     map[string]Plan
	currency  string
	siteURL   string
	logger    *zap.Logger
}

func NewService(cfg Config, gateway payment.Gateway, orders order.Repository, profiles profile.Repository, ev OrderEvents, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		calc:      pricing.NewCalculator(cfg.Shipping),
		gateway:   gateway,
		orders:    orders,
		customers: NewCustomerResolver(profiles, gateway, logger),
		events:    ev,
		plans:     planIndex(cfg.Plans),
		currency:  cfg.Currency,
		siteURL:   cfg.SiteURL,
		logger:    logger,
	}
}

func (s *Service) publishOrderCreated(ctx context.Context, o *order.Order, meta events.Metadata) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderCreated(ctx, o, meta); err != nil {
		s.logger.Warn("publish OrderCreated failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// recordOrder writes o, falling back to a guest order when the signed-in user
// has no profile row. The payment is already under way at this point, so the
// order must not be lost over the user link.
func recordOrder(ctx context.Context, orders order.Repository, o *order.Order, logger *zap.Logger) error {
	err := orders.Create(ctx, o)
	if err == nil || o.UserID == "" || !errors.Is(err, order.ErrUnknownUser) {
		return err
	}
	logger.Warn("recording order without user link",
		zap.String("user_id", o.UserID),
		zap.String("payment_intent_id", o.PaymentIntentID),
		zap.Error(err),
	)
	o.UserID = ""
	return orders.Create(ctx, o)
}
