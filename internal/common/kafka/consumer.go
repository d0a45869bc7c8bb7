package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. A returned error makes the consumer
// retry the same message with backoff.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

const maxHandleRetries = 5

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader     *kafkago.Reader
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(b, maxHandleRetries)
}

// NewConsumer creates a consumer group reader for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafkago.FirstOffset,
		}),
		logger:     logger.With(zap.String("topic", topic), zap.String("group", groupID)),
		newBackOff: defaultBackOff,
	}
}

// Consume fetches messages and hands them to handler until ctx is cancelled.
// A failing message is retried with exponential backoff. Once the retries are
// exhausted it is logged and committed so the partition keeps moving; the
// message is dropped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if !c.process(ctx, msg, handler) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// process runs handler until it succeeds or the backoff gives up. It returns
// false when ctx ended first, in which case the message must not be committed.
func (c *Consumer) process(ctx context.Context, msg kafkago.Message, handler MessageHandler) bool {
	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			return handler(ctx, msg)
		},
		backoff.WithContext(c.newBackOff(), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn("retrying message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempts),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	c.logger.Error("dropping message after retries",
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)
	return true
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
