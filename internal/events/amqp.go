package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultExchange is the durable topic exchange action events go to.
	DefaultExchange = "caseflow.actions"

	dialAttempts  = 5
	dialBaseDelay = 500 * time.Millisecond
	dialMaxDelay  = 8 * time.Second
)

// AMQPPublisher sends envelopes to a RabbitMQ topic exchange. Each
// Publish opens a short-lived channel; the connection is shared.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   *zap.Logger
}

// NewAMQP connects to the broker and declares the exchange. Dialing
// retries with exponential backoff; ctx cancels the wait. The exchange
// is declared durable so events survive broker restarts.
func NewAMQP(ctx context.Context, url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := dialWithRetry(ctx, url, logger)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange, logger: logger}, nil
}

func dialWithRetry(ctx context.Context, url string, logger *zap.Logger) (*amqp091.Connection, error) {
	var lastErr error
	delay := dialBaseDelay
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if attempt > 1 {
				logger.Info("broker connected", zap.Int("attempt", attempt))
			}
			return conn, nil
		}
		lastErr = err
		if attempt == dialAttempts {
			break
		}

		logger.Warn("broker dial failed",
			zap.Int("attempt", attempt),
			zap.Duration("sleep", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		delay *= 2
		if delay > dialMaxDelay {
			delay = dialMaxDelay
		}
	}
	return nil, fmt.Errorf("connecting to broker after %d attempts: %w", dialAttempts, lastErr)
}

// Publish sends one envelope as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, env Envelope) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    env.ID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}
	p.logger.Debug("event published",
		zap.String("key", routingKey),
		zap.String("exchange", p.exchange))
	return nil
}

// Close shuts the broker connection down.
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}
