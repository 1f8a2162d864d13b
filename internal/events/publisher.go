package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch      channel
	counter sequence.Counter
}

func NewPublisher(conn *amqp.Connection, counter sequence.Counter) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := DeclareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, counter: counter}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order, meta Metadata) error {
	seq, err := p.counter.Next(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	body, err := json.Marshal(BuildOrderCreatedEnvelope(o, seq, meta))
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	return p.publishJSON(ctx, OrderCreatedRoutingKey, body)
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, orderID, paymentIntentID string, meta Metadata) error {
	seq, err := p.counter.Next(ctx, orderID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	body, err := json.Marshal(BuildOrderPaidEnvelope(orderID, paymentIntentID, seq, meta))
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}
	return p.publishJSON(ctx, OrderPaidRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
