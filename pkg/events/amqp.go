package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// PublishTimeout bounds a single publish.
const PublishTimeout = 5 * time.Second

// Publisher sends events as JSON messages to a single queue through the
// default exchange.
type Publisher struct {
	mu      sync.Mutex
	ch      Channel
	conn    *amqp.Connection
	queue   string
	timeout time.Duration
	now     func() time.Time
}

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    Event     `json:"payload"`
}

// NewPublisher publishes on an already opened channel.
func NewPublisher(ch Channel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queue, timeout: PublishTimeout, now: time.Now}
}

// DialPublisher connects to the broker and declares a durable queue.
func DialPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}

	p := NewPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

// Dispatch publishes event as a persistent message. Events describe changes
// that are already stored, so the publish is not cancelled with ctx; it is
// bounded by the publisher's timeout instead.
func (p *Publisher) Dispatch(ctx context.Context, event Event) error {
	at := p.now().UTC()
	body, err := json.Marshal(envelope{Type: event.Type(), OccurredAt: at, Payload: event})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", event.Type(), err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         event.Type(),
			Timestamp:    at,
			Body:         body,
		},
	)
}

// Close releases the channel and, when dialed here, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
