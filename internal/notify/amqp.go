package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uziwear-be/internal/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	routingKeyOrderConfirmed = "order.confirmed"
	routingKeyOrderShipped   = "order.shipped"

	publishTimeout = 5 * time.Second
)

// AMQPNotifier publishes order events to a RabbitMQ topic exchange. Publishes
// are confirmed so a dropped broker connection surfaces as an error to the
// caller, who logs and moves on.
type AMQPNotifier struct {
	conn          *amqp.Connection
	channel       *amqp.Channel
	exchange      string
	notifyConfirm chan amqp.Confirmation
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to put channel in confirm mode: %w", err)
	}

	n := &AMQPNotifier{
		conn:          conn,
		channel:       ch,
		exchange:      exchange,
		notifyConfirm: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}

	logger.L().Info("notification publisher connected",
		zap.String("exchange", exchange),
	)

	return n, nil
}

func (n *AMQPNotifier) OrderConfirmed(ctx context.Context, ev OrderConfirmedEvent) error {
	return n.publish(ctx, routingKeyOrderConfirmed, ev)
}

func (n *AMQPNotifier) OrderShipped(ctx context.Context, ev OrderShippedEvent) error {
	return n.publish(ctx, routingKeyOrderShipped, ev)
}

func (n *AMQPNotifier) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = n.channel.Publish(n.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}

	select {
	case confirm := <-n.notifyConfirm:
		if !confirm.Ack {
			return fmt.Errorf("broker nacked %s", key)
		}
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish confirmation timed out for %s", key)
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.FromCtx(ctx).Debug("event published",
		zap.String("routing_key", key),
		zap.String("exchange", n.exchange),
	)

	return nil
}

func (n *AMQPNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}
