package checkout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// Plan is a membership offering backed by a recurring processor price.
type Plan struct {
	ID      string
	Name    string
	PriceID string
}

// DefaultPlans returns the membership plans with their processor price ids.
func DefaultPlans(monthlyPriceID, annualPriceID string) []Plan {
	return []Plan{
		{ID: PlanMonthly, Name: "Monthly Membership", PriceID: monthlyPriceID},
		{ID: PlanAnnual, Name: "Annual Membership", PriceID: annualPriceID},
	}
}

// plans without a price id are not offered.
func planIndex(plans []Plan) map[string]Plan {
	idx := make(map[string]Plan, len(plans))
	for _, p := range plans {
		if p.PriceID == "" {
			continue
		}
		idx[p.ID] = p
	}
	return idx
}

type CheckoutSessionInput struct {
	PlanID string
	UserID string
	Email  string
}

func (s *Service) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (payment.CheckoutSession, error) {
	if strings.TrimSpace(in.PlanID) == "" || strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.Email) == "" {
		return payment.CheckoutSession{}, ErrMissingFields
	}

	plan, ok := s.plans[in.PlanID]
	if !ok {
		return payment.CheckoutSession{}, ErrInvalidPlan
	}

	customerID, err := s.customers.Resolve(ctx, in.UserID, in.Email, nil)
	if err != nil {
		return payment.CheckoutSession{}, err
	}

	base := strings.TrimRight(s.siteURL, "/")
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionRequest{
		CustomerID: customerID,
		PriceID:    plan.PriceID,
		SuccessURL: base + "/membership/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/membership?canceled=true",
		Metadata: map[string]string{
			"user_id": in.UserID,
			"plan_id": plan.ID,
		},
	})
	if err != nil {
		return payment.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", in.UserID),
		zap.String("plan_id", plan.ID),
	)
	return session, nil
}
