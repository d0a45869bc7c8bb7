package events

import (
	"context"

	"github.com/agrirent/service-booking/internal/common/kafka"
	"github.com/agrirent/service-booking/internal/proto/events"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProfileProjector applies user profile changes to the local party projection.
// *application.PartyService satisfies it.
type ProfileProjector interface {
	ApplyProfile(ctx context.Context, evt events.UserProfileEvent) error
}

// UserEventConsumer listens to identity events and keeps farmer and owner
// display data up to date.
type UserEventConsumer struct {
	consumer  *kafka.Consumer
	projector ProfileProjector
	logger    *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	projector ProfileProjector,
	logger *zap.Logger,
) *UserEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicUserEvents, logger)
	return &UserEventConsumer{
		consumer:  consumer,
		projector: projector,
		logger:    logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed messages are skipped, not retried
	}

	switch cloudEvent.Type {
	case events.UserRegistered, events.UserProfileUpdated:
		return c.handleProfile(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled user event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *UserEventConsumer) handleProfile(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.UserProfileEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserProfileEvent data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = cloudEvent.Time
	}

	if err := c.projector.ApplyProfile(ctx, evt); err != nil {
		c.logger.Error("failed to apply user profile",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
