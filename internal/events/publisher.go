package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/TvixT/simple-mart/internal/order"
)

// Publisher emits order lifecycle events. Publishing is best-effort from the
// caller's point of view: it runs after the database transaction commits and
// must never undo a committed order.
type Publisher interface {
	OrderCreated(ctx context.Context, o order.Order) error
	OrderCancelled(ctx context.Context, o order.Order) error
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, order.Order) error   { return nil }
func (NopPublisher) OrderCancelled(context.Context, order.Order) error { return nil }

type AMQPPublisher struct {
	ch *amqp.Channel
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

func (p *AMQPPublisher) OrderCreated(ctx context.Context, o order.Order) error {
	ev := OrderCreated{
		EventType:  EventTypeOrderCreated,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      orderLines(o.Items),
		TotalPrice: o.TotalPrice.StringFixed(2),
		Timestamp:  time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	return p.publishJSON(ctx, OrderCreatedRoutingKey, body)
}

func (p *AMQPPublisher) OrderCancelled(ctx context.Context, o order.Order) error {
	ev := OrderCancelled{
		EventType: EventTypeOrderCancelled,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     orderLines(o.Items),
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCancelled: %w", err)
	}
	return p.publishJSON(ctx, OrderCancelledRoutingKey, body)
}

func (p *AMQPPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
