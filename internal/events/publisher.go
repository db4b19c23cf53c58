package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"docvault/internal/domain/models"
	"docvault/internal/domain/services"
)

// ExchangeName is the topic exchange every event is published to
const ExchangeName = "docvault.events"

// channel is the subset of *amqp091.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher implements services.EventPublisher on RabbitMQ. With no URL
// it is disabled and Publish is a no-op.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel channel
	enabled bool
	logger  *slog.Logger
}

var _ services.EventPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials RabbitMQ and declares the exchange
func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	if url == "" {
		logger.Warn("AMQP_URL is empty, event publishing is disabled")
		return &AMQPPublisher{logger: logger}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, enabled: true, logger: logger}, nil
}

// Publish sends event as persistent JSON, routed by its type
func (p *AMQPPublisher) Publish(ctx context.Context, event *models.Event) error {
	if !p.enabled {
		p.logger.Debug("event publishing disabled, skipping", "type", event.Type)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		pubCtx,
		ExchangeName,       // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("published event", "type", event.Type, "document_id", event.DocumentID)
	return nil
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing rabbitmq channel", "error", err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}

	return nil
}
