package equipment

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a catalog listing. Zero values mean no constraint.
type Filter struct {
	Category      Category
	AvailableOnly bool
	MinPrice      *float64
	MaxPrice      *float64
	District      string
	Search        string
}

// EquipmentRepository defines persistence operations for equipment listings.
type EquipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Equipment, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Equipment, error)
	List(ctx context.Context, filter Filter) ([]*Equipment, error)
	Save(ctx context.Context, e *Equipment) error
	Update(ctx context.Context, e *Equipment) error
	// DeleteUnlessBooked removes a listing, failing with a conflict while a blocking
	// booking references it. The check and delete are atomic against new bookings.
	DeleteUnlessBooked(ctx context.Context, id uuid.UUID) error
}
