// Package sequence numbers events per partition so consumers can drop replays
// and reorderings for the same order.
package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrEmptyPartition = errors.New("sequence: empty partition key")

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Counter hands out numbers starting at 1 for each partition key.
type Counter interface {
	Next(ctx context.Context, partitionKey string) (int64, error)
}

const bumpSQL = `
	INSERT INTO event_sequence AS s (partition_key, last_sequence, updated_at)
	VALUES ($1, 1, NOW())
	ON CONFLICT (partition_key)
	DO UPDATE SET last_sequence = s.last_sequence + 1, updated_at = NOW()
	RETURNING last_sequence`

type counter struct {
	q Querier
}

func NewCounter(q Querier) Counter {
	return &counter{q: q}
}

func (c *counter) Next(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, ErrEmptyPartition
	}
	var n int64
	err := c.q.QueryRowContext(ctx, bumpSQL, partitionKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("bump sequence %s: %w", partitionKey, err)
	}
	return n, nil
}
