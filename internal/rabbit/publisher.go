// Package rabbit publishes order events to a RabbitMQ topic exchange. The
// event topic (order.created, ...) is the routing key.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/orders"
)

const DefaultExchange = "storefront.events"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	mu       sync.Mutex
}

// Dial connects to url and declares the durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit exchange declare: %w", err)
	}
	log.Info().Str("exchange", exchange).Msg("rabbitmq publisher ready")
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish implements orders.Publisher.
func (p *Publisher) Publish(ctx context.Context, topic string, key []byte, ev orders.Envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     ev.EventID,
		CorrelationId: string(key),
		Type:          ev.EventType,
		Timestamp:     ev.OccurredAt,
		AppId:         ev.Producer,
		Headers:       amqp091.Table{"x-event-version": int32(ev.EventVersion)},
		Body:          body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, msg)
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		log.Warn().Err(err).Msg("rabbit channel close")
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
