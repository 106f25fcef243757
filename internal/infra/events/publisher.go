package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher отправляет доменные события; реализация может быть заглушкой
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// AMQPPublisher публикует события в topic-exchange RabbitMQ
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher opens a connection, declares the durable topic exchange
// and returns a ready publisher.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
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
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// PublishJSON сериализует payload и публикует его с указанным ключом
func (p *AMQPPublisher) PublishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload for %s: %w", routingKey, err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("events: close channel: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("events: close connection: %w", err)
	}
	return nil
}

// NopPublisher используется при выключенной публикации событий
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) PublishJSON(context.Context, string, any) error { return nil }

func (*NopPublisher) Close() error { return nil }
