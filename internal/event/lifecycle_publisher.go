package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LifecyclePublisher publishes policy and claim lifecycle events to RabbitMQ.
// It satisfies the publisher interface the services package consumes.
type LifecyclePublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

// NewLifecyclePublisher creates a new lifecycle event publisher
func NewLifecyclePublisher(conn *RabbitMQConnection) *LifecyclePublisher {
	return &LifecyclePublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishLifecycle publishes one lifecycle transition to the lifecycle queue.
func (p *LifecyclePublisher) PublishLifecycle(ctx context.Context, eventType string, payload any) error {
	_, err := p.conn.Channel.QueueDeclare(
		LifecycleQueue, // queue name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	envelope := LifecycleEvent{
		EventType: eventType,
		Payload:   payload,
		EmittedAt: time.Now().Unix(),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",             // exchange
		LifecycleQueue, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Lifecycle event published",
		"queue", LifecycleQueue,
		"event_type", eventType,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *LifecyclePublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              LifecycleQueue,
	}
}

// HealthCheck returns the health status of the publisher
func (p *LifecyclePublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished,
		MessagesFailed:    p.messagesFailed,
		LastPublishTime:   p.lastPublishTime,
		Queue:             LifecycleQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}
