package application

import (
	"context"

	"github.com/agrirent/service-booking/internal/common/kafka"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	"github.com/google/uuid"
)

// EventPublisher sends CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// EquipmentLookup is the part of the catalog the booking engine reads.
type EquipmentLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*equipmentDomain.Equipment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*equipmentDomain.Equipment, error)
}

// BookingUsage reports whether equipment is still held by bookings.
type BookingUsage interface {
	CountBlocking(ctx context.Context, equipmentID uuid.UUID) (int64, error)
}
