package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Nestegg/config"
	"Nestegg/internal/domain/goal"
	"Nestegg/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// AmqpNotifier publishes progression triggers to a topic exchange. Routing
// keys are "goal.trigger.<kind>" so consumers can bind to a subset.
//
// When no broker URL is configured the notifier runs in log-only mode:
// triggers are logged and dropped. This keeps local development working
// without RabbitMQ.
type AmqpNotifier struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

type triggerEnvelope struct {
	Kind        goal.TriggerKind `json:"kind"`
	DependentId string           `json:"dependentId"`
	OccurredAt  time.Time        `json:"occurredAt"`
	Payload     interface{}      `json:"payload"`
}

func NewAmqpNotifier(cfg *config.Config) (*AmqpNotifier, error) {
	if cfg.AMQP.URL == "" {
		logger.Warn().Msg("AMQP URL not configured, triggers will be logged and dropped")
		return &AmqpNotifier{exchange: cfg.AMQP.Exchange}, nil
	}

	conn, err := amqp091.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.AMQP.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AmqpNotifier{
		conn:     conn,
		channel:  channel,
		exchange: cfg.AMQP.Exchange,
	}, nil
}

func (n *AmqpNotifier) NotifyTrigger(ctx context.Context, dependentID ulid.ULID, kind goal.TriggerKind, payload interface{}) error {
	if n.channel == nil {
		logger.Info().
			Str("kind", string(kind)).
			Str("dependent_id", dependentID.String()).
			Msg("trigger dropped, AMQP disabled")
		return nil
	}

	envelope := triggerEnvelope{
		Kind:        kind,
		DependentId: dependentID.String(),
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal trigger: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	routingKey := "goal.trigger." + string(kind)
	err = n.channel.PublishWithContext(
		ctx,
		n.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish trigger: %w", err)
	}

	logger.Debug().
		Str("kind", string(kind)).
		Str("routing_key", routingKey).
		Str("dependent_id", dependentID.String()).
		Msg("trigger published")
	return nil
}

func (n *AmqpNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
