package events

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange         = "storefront.events"
	OrderCreatedRoutingKey = "order.created.v1"
	OrderPaidRoutingKey    = "order.paid.v1"
)

// Dial connects to the broker with a bounded handshake.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange makes sure the durable topic exchange all storefront events
// are published to exists. Consumers bind their own queues to it.
func DeclareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return nil
}
