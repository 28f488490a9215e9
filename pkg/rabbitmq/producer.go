/**
 * @description
 * This package provides a simple producer for publishing messages to RabbitMQ.
 * The bot publishes a single event type: questionnaire.completed, emitted when
 * a user answers the final question so the (separate) scoring pipeline can
 * pick the record up asynchronously.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 * - github.com/rs/zerolog/log: Structured logging.
 */

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// QuestionnaireCompletedEvent is the payload published when a user finishes
// the questionnaire.
type QuestionnaireCompletedEvent struct {
	EventID     string         `json:"event_id"`
	UserID      string         `json:"user_id"`
	FullName    string         `json:"full_name"`
	Answers     map[string]int `json:"answers"`
	CompletedAt time.Time      `json:"completed_at"`
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	PublishQuestionnaireCompleted(ctx context.Context, event QuestionnaireCompletedEvent) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable or unconfigured at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	log.Warn().Str("component", "rabbitmq_producer").Str("mode", "fallback").
		Str("exchange", exchange).Str("routing_key", routingKey).Msg("publish skipped")
	return nil
}

func (p *EventProducerFallback) PublishQuestionnaireCompleted(ctx context.Context, event QuestionnaireCompletedEvent) error {
	log.Warn().Str("component", "rabbitmq_producer").Str("mode", "fallback").
		Str("user_id", event.UserID).Msg("questionnaire completion publish skipped")
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer publishing to the
// given topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends a message to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		log.Warn().Str("component", "rabbitmq_producer").Str("exchange", exchange).Err(err).
			Msg("exchange declare failed; reopening channel")
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	)
	if err != nil {
		log.Warn().Str("component", "rabbitmq_producer").Str("exchange", exchange).
			Str("routing_key", routingKey).Err(err).Msg("publish failed; reopening channel")
		// One-shot retry: reopen channel and try again
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return err
		}
		p.channel = ch
		if exErr := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); exErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		})
	}
	return nil
}

// PublishQuestionnaireCompleted publishes a completion event to the
// configured survey events exchange.
func (p *EventProducer) PublishQuestionnaireCompleted(ctx context.Context, event QuestionnaireCompletedEvent) error {
	return p.Publish(ctx, p.exchange, "questionnaire.completed", event)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
