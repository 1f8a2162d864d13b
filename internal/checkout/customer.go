package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/profile"
)

// CustomerResolver finds the processor customer for a signed-in user, creating
// and recording one the first time.
type CustomerResolver struct {
	profiles profile.Repository
	gateway  payment.Gateway
	logger   *zap.Logger
}

func NewCustomerResolver(profiles profile.Repository, gateway payment.Gateway, logger *zap.Logger) *CustomerResolver {
	return &CustomerResolver{profiles: profiles, gateway: gateway, logger: logger}
}

func (c *CustomerResolver) Resolve(ctx context.Context, userID, email string, shipping *order.ShippingAddress) (string, error) {
	existing, err := c.profiles.GetStripeCustomerID(ctx, userID)
	missingProfile := errors.Is(err, profile.ErrNotFound)
	if err != nil && !missingProfile {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if existing != "" {
		return existing, nil
	}

	customerID, err := c.gateway.CreateCustomer(ctx, payment.CustomerRequest{
		Email:    email,
		Shipping: shipping,
		Metadata: map[string]string{"user_id": userID},
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}

	if missingProfile {
		c.logger.Warn("no profile row for user, customer id not recorded",
			zap.String("user_id", userID), zap.String("customer_id", customerID))
		return customerID, nil
	}

	stored, err := c.profiles.ClaimStripeCustomerID(ctx, userID, customerID)
	if err != nil {
		c.logger.Error("failed to record customer id",
			zap.String("user_id", userID), zap.String("customer_id", customerID), zap.Error(err))
		return customerID, nil
	}
	if stored != customerID {
		c.logger.Warn("concurrent checkout created a second customer; using the recorded one",
			zap.String("user_id", userID), zap.String("orphaned_customer_id", customerID), zap.String("customer_id", stored))
	}
	return stored, nil
}
