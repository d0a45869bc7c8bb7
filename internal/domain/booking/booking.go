package booking

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/domain"
	"github.com/google/uuid"
)

// MaxNotesLength is the limit for farmer and owner notes, in characters.
const MaxNotesLength = 500

// ErrEquipmentUnavailable is returned when the listing is switched off for rental.
var ErrEquipmentUnavailable = domain.NewConflictError("equipment is not available for rental")

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id          uuid.UUID
	equipmentID uuid.UUID
	farmerID    uuid.UUID
	ownerID     uuid.UUID
	period      DateRange

	totalDays int
	usage     float64
	unit      PricingUnit
	dailyRate float64
	totalCost float64

	status             BookingStatus
	paymentStatus      PaymentStatus
	paymentConfirmedAt *time.Time

	farmerNotes string
	ownerNotes  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=pending and paymentStatus=pending.
// The owner, unit and rate are snapshots of the equipment at request time.
func NewBooking(
	equipmentID uuid.UUID,
	farmerID uuid.UUID,
	ownerID uuid.UUID,
	period DateRange,
	unit PricingUnit,
	dailyRate float64,
	quote Quote,
	farmerNotes string,
	now time.Time,
) (*Booking, error) {
	if equipmentID == uuid.Nil {
		return nil, domain.NewValidationError("equipment ID is required")
	}
	if farmerID == uuid.Nil {
		return nil, domain.NewValidationError("farmer ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if !period.IsOrdered() {
		return nil, domain.NewValidationError("end date cannot be before start date")
	}
	if !unit.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid pricing unit: %s", unit))
	}
	if quote.TotalDays < 1 {
		return nil, domain.NewValidationError("total days must be at least 1")
	}
	if err := validateNotes("farmer notes", farmerNotes); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:            uuid.New(),
		equipmentID:   equipmentID,
		farmerID:      farmerID,
		ownerID:       ownerID,
		period:        period,
		totalDays:     quote.TotalDays,
		usage:         quote.Usage,
		unit:          unit,
		dailyRate:     dailyRate,
		totalCost:     quote.TotalCost,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		farmerNotes:   farmerNotes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	equipmentID uuid.UUID,
	farmerID uuid.UUID,
	ownerID uuid.UUID,
	period DateRange,
	totalDays int,
	usage float64,
	unit PricingUnit,
	dailyRate float64,
	totalCost float64,
	status BookingStatus,
	paymentStatus PaymentStatus,
	paymentConfirmedAt *time.Time,
	farmerNotes string,
	ownerNotes string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		equipmentID:        equipmentID,
		farmerID:           farmerID,
		ownerID:            ownerID,
		period:             period,
		totalDays:          totalDays,
		usage:              usage,
		unit:               unit,
		dailyRate:          dailyRate,
		totalCost:          totalCost,
		status:             status,
		paymentStatus:      paymentStatus,
		paymentConfirmedAt: paymentConfirmedAt,
		farmerNotes:        farmerNotes,
		ownerNotes:         ownerNotes,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// EquipmentID returns the booked equipment's ID.
func (b *Booking) EquipmentID() uuid.UUID { return b.equipmentID }

// FarmerID returns the requesting farmer's user ID.
func (b *Booking) FarmerID() uuid.UUID { return b.farmerID }

// OwnerID returns the equipment owner's user ID as it was at creation.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Period returns the rental date range.
func (b *Booking) Period() DateRange { return b.period }

// StartDate returns the first rental date.
func (b *Booking) StartDate() time.Time { return b.period.Start }

// EndDate returns the last rental date.
func (b *Booking) EndDate() time.Time { return b.period.End }

// TotalDays returns the number of rental days.
func (b *Booking) TotalDays() int { return b.totalDays }

// Usage returns the billed quantity in the booking's unit.
func (b *Booking) Usage() float64 { return b.usage }

// Unit returns the pricing unit snapshot.
func (b *Booking) Unit() PricingUnit { return b.unit }

// DailyRate returns the rate snapshot per unit.
func (b *Booking) DailyRate() float64 { return b.dailyRate }

// TotalCost returns the cost computed at creation.
func (b *Booking) TotalCost() float64 { return b.totalCost }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentConfirmedAt returns when payment was marked received, or nil.
func (b *Booking) PaymentConfirmedAt() *time.Time { return b.paymentConfirmedAt }

// FarmerNotes returns the farmer's notes.
func (b *Booking) FarmerNotes() string { return b.farmerNotes }

// OwnerNotes returns the owner's notes.
func (b *Booking) OwnerNotes() string { return b.ownerNotes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// CanBeViewedBy reports whether actor is a party to the booking or an admin.
func (b *Booking) CanBeViewedBy(actor auth.Actor) bool {
	return actor.Is(b.farmerID) || actor.Is(b.ownerID) || actor.IsAdmin()
}

// AuthorizeStatusChange checks that actor may request the target status.
// It does not consult the transition table.
func (b *Booking) AuthorizeStatusChange(actor auth.Actor, target BookingStatus) error {
	isOwner := actor.Is(b.ownerID)
	isFarmer := actor.Is(b.farmerID)

	if target.IsOwnerOnly() && !isOwner {
		return domain.NewForbiddenError("only the equipment owner can perform this action")
	}

	if target == StatusCancelled {
		if !isOwner && !isFarmer {
			return domain.NewForbiddenError("not authorized to cancel this booking")
		}
		if isFarmer && !isOwner && b.status != StatusPending {
			return domain.NewValidationError("can only cancel pending bookings")
		}
	}
	return nil
}

// ChangeStatus authorizes and applies a status transition. ownerNotes replaces the
// owner's notes when non-empty.
func (b *Booking) ChangeStatus(actor auth.Actor, target BookingStatus, ownerNotes string, now time.Time) error {
	if !target.IsValid() || target == StatusPending {
		return domain.NewValidationError(fmt.Sprintf("invalid status: %s", target))
	}
	if err := b.AuthorizeStatusChange(actor, target); err != nil {
		return err
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	if err := validateNotes("owner notes", ownerNotes); err != nil {
		return err
	}

	b.status = target
	if ownerNotes != "" {
		b.ownerNotes = ownerNotes
	}
	b.updatedAt = now.UTC()
	return nil
}

// SetPaymentStatus records whether payment was received. Only the owner may do this,
// and only once the booking is completed.
func (b *Booking) SetPaymentStatus(actor auth.Actor, status PaymentStatus, now time.Time) error {
	if !status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment status %q, use %q or %q", status, PaymentPending, PaymentReceived))
	}
	if !actor.Is(b.ownerID) {
		return domain.NewForbiddenError("only the equipment owner can update payment status")
	}
	if b.status != StatusCompleted {
		return domain.NewValidationError("payment status can only be updated for completed bookings")
	}

	now = now.UTC()
	b.paymentStatus = status
	if status == PaymentReceived {
		b.paymentConfirmedAt = &now
	} else {
		b.paymentConfirmedAt = nil
	}
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}

func validateNotes(field, notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return domain.NewValidationError(fmt.Sprintf("%s cannot exceed %d characters", field, MaxNotesLength))
	}
	return nil
}
