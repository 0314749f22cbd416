package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer in use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaNotifier publishes notices to topic, keyed by order number so a
// single order's events stay on one partition.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) Notifier {
	return newKafkaNotifier(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, logger)
}

func newKafkaNotifier(w messageWriter, logger zerolog.Logger) *kafkaNotifier {
	return &kafkaNotifier{
		writer: w,
		logger: logger.With().Str("component", "kafka-notifier").Logger(),
	}
}

func (n *kafkaNotifier) NotifyReady(ctx context.Context, notice ReadyNotice) error {
	body, err := encode(notice)
	if err != nil {
		return err
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.OrderNumber),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order.ready")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish ready notice: %w", err)
	}

	n.logger.Debug().Str("order_number", notice.OrderNumber).Msg("ready notice published")
	return nil
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
