package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes JSON messages onto RabbitMQ queues.  Errors are logged
// and returned so callers can ignore failures without interrupting the
// main request flow; a nil Publisher silently drops everything, which lets
// the API run without a broker in development.
type Publisher struct{ url string }

// NewPublisher returns a publisher for the given AMQP URL, or nil when the
// URL is empty.
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

// PublishEmail enqueues an email for the worker.
func (p *Publisher) PublishEmail(ctx context.Context, msg EmailMessage) error {
	return p.publish(ctx, EmailQueue, msg)
}

// PublishAuthEvent enqueues an analytics event for the sink consumer.
func (p *Publisher) PublishAuthEvent(ctx context.Context, ev AuthEvent) error {
	return p.publish(ctx, AuthEventsQueue, ev)
}

// publish dials the broker, declares the queue (idempotent) and publishes
// one persistent message.  The function never panics; any error is logged
// and returned.
func (p *Publisher) publish(ctx context.Context, queueName string, payload interface{}) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal payload failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
