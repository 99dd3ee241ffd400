package services

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/renthive/rental-app/utils"
)

// AuditPublisher publishes lifecycle audit events for downstream consumers
// (ledger, analytics). Falls back to a noop when AMQP is not configured.
type AuditPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewAuditPublisher connects to RabbitMQ, or returns a noop publisher when
// the URL is empty or the broker is unreachable. Audit delivery is best
// effort and never blocks a booking transition.
func NewAuditPublisher(amqpURL, exchange string) AuditPublisher {
	if amqpURL == "" {
		utils.InfoLogger.Println("audit publisher disabled: empty AMQP url")
		return noopPublisher{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		utils.ErrorLogger.Printf("audit publisher disabled: %v", err)
		return noopPublisher{}
	}

	ch, err := conn.Channel()
	if err != nil {
		utils.ErrorLogger.Printf("audit publisher disabled: %v", err)
		_ = conn.Close()
		return noopPublisher{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		utils.ErrorLogger.Printf("audit publisher disabled: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{}
	}

	utils.InfoLogger.Printf("audit publisher connected exchange=%s", exchange)
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		utils.ErrorLogger.Printf("audit publish failed: %v", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
func (noopPublisher) Close() error                               { return nil }
