package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxDialTimeout caps connection setup when the caller has no deadline.
const maxDialTimeout = 5 * time.Second

// AMQPPublisher publishes DocumentEvents to RabbitMQ.  Each publish opens
// its own connection; lifecycle events are rare enough that a pooled
// connection is not worth the reconnect bookkeeping.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// NewAMQPPublisher returns a publisher for url that targets
// DocumentEventsQueue.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: DocumentEventsQueue}
}

// PublishDocumentEvent sends ev as a persistent JSON message.  Connection
// setup is bounded by ctx.  Errors are returned, not logged; the caller
// decides how loud a lost event is.
func (p *AMQPPublisher) PublishDocumentEvent(ctx context.Context, ev DocumentEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: contextDialer(ctx)})
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq: declare %s: %w", p.Queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", ev.Type, err)
	}
	return nil
}

// contextDialer dials under ctx and keeps a deadline on the socket for the
// AMQP handshake; the library clears it once the connection is open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		timeout := dialTimeout(ctx, time.Now())
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// dialTimeout is the time left before ctx's deadline, capped at
// maxDialTimeout.
func dialTimeout(ctx context.Context, now time.Time) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return maxDialTimeout
	}
	if left := deadline.Sub(now); left < maxDialTimeout {
		return left
	}
	return maxDialTimeout
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishDocumentEvent(context.Context, DocumentEvent) error { return nil }
