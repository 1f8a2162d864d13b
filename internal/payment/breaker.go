package payment

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

// BreakerGateway fails fast while the processor is unhealthy. It never retries:
// a payment call that may have reached the processor is not safe to repeat.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(next Gateway, s BreakerSettings, logger *zap.Logger) *BreakerGateway {
	if s.MaxConsecutiveFailures == 0 {
		s.MaxConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (b *BreakerGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	return execute(b.cb, func() (string, error) {
		return b.next.CreateCustomer(ctx, req)
	})
}

func (b *BreakerGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error) {
	return execute(b.cb, func() (PaymentIntent, error) {
		return b.next.CreatePaymentIntent(ctx, req)
	})
}

func (b *BreakerGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	return execute(b.cb, func() (CheckoutSession, error) {
		return b.next.CreateCheckoutSession(ctx, req)
	})
}

func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
