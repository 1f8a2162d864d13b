package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrUnknownUser is returned when user_id does not name a profile row.
	ErrUnknownUser = errors.New("order user has no profile")
	// ErrDuplicate is returned when an order already exists for the payment intent.
	ErrDuplicate = errors.New("order already exists for payment intent")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error)
	UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status Status) (string, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// Create writes the order row and its item snapshots in one transaction.
func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, email, status, total_amount, shipping_address, payment_intent_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, nullIfEmpty(o.UserID), o.Email, string(o.Status), o.TotalAmount.StringFixed(2), string(shipping), o.PaymentIntentID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", classify(err))
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), o.ID, it.ProductID, it.Name, it.Quantity, it.Price.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error) {
	var (
		o        Order
		userID   sql.NullString
		status   string
		shipping []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, status, total_amount, shipping_address, payment_intent_id, created_at
         FROM orders WHERE payment_intent_id = $1`,
		paymentIntentID,
	).Scan(&o.ID, &userID, &o.Email, &status, &o.TotalAmount, &shipping, &o.PaymentIntentID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.UserID = userID.String
	o.Status = Status(status)
	if len(shipping) > 0 {
		if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, product_name, quantity, price
         FROM order_items WHERE order_id = $1`,
		o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

// UpdateStatusByPaymentIntentID moves the order to status and returns its id.
// Only a real transition matches: an order already in status, or already paid,
// yields ErrNotFound. Concurrent callers racing on the same transition see
// exactly one winner.
func (r *repo) UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status Status) (string, error) {
	var orderID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW()
         WHERE payment_intent_id = $1 AND status <> $2 AND status <> 'paid'
         RETURNING id`,
		paymentIntentID, string(status),
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("update order status: %w", err)
	}
	return orderID, nil
}

// classify maps constraint violations on the orders row to sentinel errors.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == "23503" && pqErr.Constraint == "orders_user_id_fkey":
		return fmt.Errorf("%w: %s", ErrUnknownUser, pqErr.Message)
	case pqErr.Code == "22P02":
		// user ids that are not UUIDs cannot name a profile either
		return fmt.Errorf("%w: %s", ErrUnknownUser, pqErr.Message)
	case pqErr.Code == "23505" && pqErr.Constraint == "orders_payment_intent_id_key":
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
	}
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
