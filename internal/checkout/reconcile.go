package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/profile"
)

// Reconciler applies verified processor webhooks to orders and profiles.
type Reconciler struct {
	orders   order.Repository
	profiles profile.Repository
	dedup    dedup.Repository
	events   OrderEvents
	logger   *zap.Logger
}

func NewReconciler(orders order.Repository, profiles profile.Repository, dd dedup.Repository, ev OrderEvents, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{orders: orders, profiles: profiles, dedup: dd, events: ev, logger: logger}
}

func (r *Reconciler) Handle(ctx context.Context, ev payment.Event, meta events.Metadata) error {
	seen, err := r.dedup.Seen(ctx, ev.ID)
	if err != nil {
		return err
	}
	if seen {
		r.logger.Info("skipping duplicate webhook event", zap.String("event_id", ev.ID))
		return nil
	}
	meta.CausationID = ev.ID

	switch ev.Type {
	case payment.EventPaymentIntentSucceeded:
		err = r.settle(ctx, ev, order.StatusPaid, meta)
	case payment.EventPaymentIntentFailed:
		err = r.settle(ctx, ev, order.StatusFailed, meta)
	case payment.EventPaymentIntentCanceled:
		err = r.settle(ctx, ev, order.StatusCancelled, meta)
	case payment.EventCheckoutSessionCompleted:
		err = r.activateMembership(ctx, ev)
	case payment.EventSubscriptionDeleted:
		err = r.cancelMembership(ctx, ev)
	default:
		r.logger.Debug("ignoring webhook event", zap.String("event_id", ev.ID), zap.String("type", string(ev.Type)))
	}
	if err != nil {
		return err
	}

	return r.dedup.MarkProcessed(ctx, ev.ID, string(ev.Type))
}

// settle applies status to the order behind the payment intent. The status
// transition is the claim: when concurrent deliveries race, only the one whose
// update matched publishes OrderPaid.
func (r *Reconciler) settle(ctx context.Context, ev payment.Event, status order.Status, meta events.Metadata) error {
	orderID, err := r.orders.UpdateStatusByPaymentIntentID(ctx, ev.PaymentIntentID, status)
	switch {
	case err == nil:
		r.logger.Info("order settled", zap.String("order_id", orderID), zap.String("status", string(status)))
	case errors.Is(err, order.ErrNotFound):
		existing, gerr := r.orders.GetByPaymentIntentID(ctx, ev.PaymentIntentID)
		if gerr == nil {
			// already in status, or paid and not to be downgraded
			r.logger.Info("order left unchanged", zap.String("order_id", existing.ID), zap.String("status", string(existing.Status)))
			return nil
		}
		if !errors.Is(gerr, order.ErrNotFound) {
			return fmt.Errorf("load order: %w", gerr)
		}

		o, rerr := r.rebuildOrder(ev, status)
		if rerr != nil {
			return rerr
		}
		if err := recordOrder(ctx, r.orders, o, r.logger); err != nil {
			if errors.Is(err, order.ErrDuplicate) {
				r.logger.Info("order recreated by a concurrent delivery", zap.String("payment_intent_id", ev.PaymentIntentID))
				return nil
			}
			return fmt.Errorf("recreate order: %w", err)
		}
		orderID = o.ID
		r.logger.Warn("recreated missing order from payment intent",
			zap.String("order_id", o.ID), zap.String("payment_intent_id", ev.PaymentIntentID))
		if r.events != nil {
			if err := r.events.PublishOrderCreated(ctx, o, meta); err != nil {
				r.logger.Warn("publish OrderCreated failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}
	default:
		return fmt.Errorf("update order status: %w", err)
	}

	if status == order.StatusPaid && r.events != nil {
		if err := r.events.PublishOrderPaid(ctx, orderID, ev.PaymentIntentID, meta); err != nil {
			r.logger.Warn("publish OrderPaid failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

func (r *Reconciler) rebuildOrder(ev payment.Event, status order.Status) (*order.Order, error) {
	items, err := decodeItems(ev.Metadata["items"])
	if err != nil {
		return nil, fmt.Errorf("decode item metadata: %w", err)
	}
	if ev.Metadata["items_truncated"] == "true" {
		r.logger.Warn("rebuilt order has truncated item list", zap.String("payment_intent_id", ev.PaymentIntentID))
	}

	userID := ev.Metadata["user_id"]
	if userID == guestUserID {
		userID = ""
	}

	o := &order.Order{
		UserID:          userID,
		Email:           ev.ReceiptEmail,
		PaymentIntentID: ev.PaymentIntentID,
		Status:          status,
		TotalAmount:     pricing.FromMinorUnits(ev.AmountMinor),
		Items:           items,
	}
	if ev.Shipping != nil {
		o.ShippingAddress = *ev.Shipping
	}
	return o, nil
}

func (r *Reconciler) activateMembership(ctx context.Context, ev payment.Event) error {
	userID, planID := ev.Metadata["user_id"], ev.Metadata["plan_id"]
	if userID == "" || planID == "" {
		r.logger.Warn("checkout session without user or plan metadata", zap.String("session_id", ev.CheckoutSessionID))
		return nil
	}

	err := r.profiles.SetSubscription(ctx, userID, planID, profile.TierMember)
	if errors.Is(err, profile.ErrNotFound) {
		r.logger.Warn("membership for unknown profile", zap.String("user_id", userID), zap.String("session_id", ev.CheckoutSessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("activate membership: %w", err)
	}

	r.logger.Info("membership activated", zap.String("user_id", userID), zap.String("plan_id", planID))
	return nil
}

func (r *Reconciler) cancelMembership(ctx context.Context, ev payment.Event) error {
	userID := ev.Metadata["user_id"]
	if userID == "" {
		r.logger.Warn("subscription without user metadata", zap.String("subscription_id", ev.SubscriptionID))
		return nil
	}

	err := r.profiles.SetSubscription(ctx, userID, "", profile.TierFree)
	if errors.Is(err, profile.ErrNotFound) {
		r.logger.Warn("membership cancelled for unknown profile", zap.String("user_id", userID), zap.String("subscription_id", ev.SubscriptionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel membership: %w", err)
	}

	r.logger.Info("membership cancelled", zap.String("user_id", userID), zap.String("subscription_id", ev.SubscriptionID))
	return nil
}
