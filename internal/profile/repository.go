package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("profile not found")

type Tier string

const (
	TierFree   Tier = "free"
	TierMember Tier = "member"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// GetStripeCustomerID returns "" when the profile has no customer yet.
	GetStripeCustomerID(ctx context.Context, userID string) (string, error)
	// ClaimStripeCustomerID stores customerID only if the profile has none and
	// returns whichever id is stored afterwards.
	ClaimStripeCustomerID(ctx context.Context, userID, customerID string) (string, error)
	SetSubscription(ctx context.Context, userID, planID string, tier Tier) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetStripeCustomerID(ctx context.Context, userID string) (string, error) {
	var customerID string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(stripe_customer_id, '') FROM profiles WHERE id = $1`,
		userID,
	).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select stripe_customer_id: %w", err)
	}
	return customerID, nil
}

func (r *PostgresRepository) ClaimStripeCustomerID(ctx context.Context, userID, customerID string) (string, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET stripe_customer_id = $2, updated_at = now()
		 WHERE id = $1 AND stripe_customer_id IS NULL`,
		userID, customerID,
	)
	if err != nil {
		return "", fmt.Errorf("claim stripe_customer_id: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return customerID, nil
	}

	stored, err := r.GetStripeCustomerID(ctx, userID)
	if err != nil {
		return "", err
	}
	if stored == "" {
		return "", fmt.Errorf("claim stripe_customer_id: nothing stored for %s", userID)
	}
	return stored, nil
}

func (r *PostgresRepository) SetSubscription(ctx context.Context, userID, planID string, tier Tier) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET subscription_tier = $2, subscription_plan = NULLIF($3, ''), updated_at = now()
		 WHERE id = $1`,
		userID, string(tier), planID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
