package notify

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// publisher is the part of amqp.Channel in use.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitNotifier struct {
	channel  publisher
	exchange string
	closers  []func() error
	logger   zerolog.Logger
}

// NewRabbitNotifier dials url and publishes notices to a durable fanout
// exchange.
func NewRabbitNotifier(url, exchange string, logger zerolog.Logger) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	n := newRabbitNotifier(channel, exchange, logger)
	n.closers = []func() error{channel.Close, conn.Close}
	return n, nil
}

func newRabbitNotifier(channel publisher, exchange string, logger zerolog.Logger) *rabbitNotifier {
	return &rabbitNotifier{
		channel:  channel,
		exchange: exchange,
		logger:   logger.With().Str("component", "rabbitmq-notifier").Logger(),
	}
}

func (n *rabbitNotifier) NotifyReady(ctx context.Context, notice ReadyNotice) error {
	body, err := encode(notice)
	if err != nil {
		return err
	}

	err = n.channel.PublishWithContext(ctx,
		n.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    notice.OrderID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish ready notice: %w", err)
	}

	n.logger.Debug().Str("order_number", notice.OrderNumber).Msg("ready notice published")
	return nil
}

func (n *rabbitNotifier) Close() error {
	var first error
	for _, c := range n.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
