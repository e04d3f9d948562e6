// Package events publishes generation progress to a RabbitMQ topic exchange
// so that other processes can follow runs they did not start.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"resume-generator/internal/generations"
)

// Exchange is the topic exchange generation updates are published to.
const Exchange = "generation_updates"

// RoutingKey returns the routing key of updates for a generation key.
func RoutingKey(key string) string {
	return "generation." + key
}

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink is a generations.EventSink backed by a RabbitMQ connection.
type AMQPSink struct {
	conn     *amqp.Connection
	open     func() (publisher, error)
	exchange string
}

// DialAMQP connects to url and declares the update exchange.
func DialAMQP(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	s := &AMQPSink{conn: conn, exchange: Exchange}
	s.open = func() (publisher, error) { return conn.Channel() }
	return s, nil
}

// update is the wire form of an event. Drafts stay out of the broker.
type update struct {
	Stage     generations.Stage `json:"stage"`
	Key       string            `json:"key"`
	Message   string            `json:"message,omitempty"`
	Code      string            `json:"code,omitempty"`
	Rows      int               `json:"rows,omitempty"`
	Eligible  int               `json:"eligible,omitempty"`
	SourceRef string            `json:"source_artifact_ref,omitempty"`
	PDFRef    string            `json:"pdf_artifact_ref,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func toUpdate(ev generations.Event) update {
	u := update{
		Stage:     ev.Stage,
		Key:       ev.Key,
		Message:   ev.Message,
		Code:      ev.Code,
		Rows:      ev.Rows,
		Eligible:  ev.Eligible,
		Timestamp: ev.Timestamp,
	}
	if ev.Result != nil {
		u.SourceRef = ev.Result.SourceRef
		u.PDFRef = ev.Result.PDFRef
	}
	return u
}

// Publish sends ev on its own channel.
func (s *AMQPSink) Publish(ctx context.Context, ev generations.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(toUpdate(ev))
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	ch, err := s.open()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(
		s.exchange,
		RoutingKey(ev.Key),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.Timestamp,
			Body:        body,
		},
	)
}

// Close closes the underlying connection.
func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

var _ generations.EventSink = (*AMQPSink)(nil)
