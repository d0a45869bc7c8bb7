package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByFarmerID retrieves a farmer's bookings, newest first, optionally filtered by status.
	FindByFarmerID(ctx context.Context, farmerID uuid.UUID, status *BookingStatus) ([]*Booking, error)

	// FindByOwnerID retrieves bookings on an owner's equipment, newest first, optionally filtered by status.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, status *BookingStatus) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// HasOverlap reports whether a blocking booking on the equipment shares a day with period.
	HasOverlap(ctx context.Context, equipmentID uuid.UUID, period DateRange) (bool, error)

	// FindUpcoming retrieves blocking bookings on the equipment that end at or after from.
	FindUpcoming(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]*Booking, error)

	// CountBlocking counts blocking bookings that reference the equipment.
	CountBlocking(ctx context.Context, equipmentID uuid.UUID) (int64, error)

	// SaveExclusive persists a new booking unless a blocking booking overlaps it.
	// The overlap check and insert are atomic per equipment; a lost race returns a conflict error.
	SaveExclusive(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
