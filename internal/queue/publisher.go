package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/skillgraph/internal/logging"
)

// DefaultDialTimeout bounds connecting and the AMQP handshake for a publish.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends events to RabbitMQ.  It dials per publish so a broker
// outage never leaves a stale connection behind; errors are logged and
// returned so the caller can choose to ignore them.  Dialing never takes
// longer than the dial timeout or the context deadline, whichever is sooner.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	log         logging.Logger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log logging.Logger) *Publisher {
	return &Publisher{url: url, dialTimeout: DefaultDialTimeout, log: log.With("component", "publisher")}
}

// WithDialTimeout overrides DefaultDialTimeout.
func (p *Publisher) WithDialTimeout(d time.Duration) *Publisher {
	p.dialTimeout = d
	return p
}

// PublishUserRegistered publishes ev to the user.registered queue as a
// persistent message.
func (p *Publisher) PublishUserRegistered(ctx context.Context, ev UserRegisteredEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error(ctx, "marshal event failed", "error", err.Error())
		return err
	}
	return p.publish(ctx, UserRegisteredQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout(ctx))})
	if err != nil {
		p.log.Warn(ctx, "rabbitmq dial failed", "error", err.Error())
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn(ctx, "rabbitmq channel open failed", "error", err.Error())
		return err
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Warn(ctx, "rabbitmq queue declare failed", "queue", queue, "error", err.Error())
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.log.Warn(ctx, "rabbitmq publish failed", "queue", queue, "error", err.Error())
		return err
	}
	return nil
}

func (p *Publisher) timeout(ctx context.Context) time.Duration {
	d := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}
