// Package events defines the topics, event types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicUserEvents    = "user.events"
)

// Booking event types.
const (
	BookingRequested      = "booking.requested"
	BookingStatusChanged  = "booking.status_changed"
	BookingPaymentUpdated = "booking.payment_updated"
)

// User event types.
const (
	UserRegistered     = "user.registered"
	UserProfileUpdated = "user.profile_updated"
)

// BookingRequestedEvent is published when a farmer requests equipment.
type BookingRequestedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	EquipmentID uuid.UUID `json:"equipment_id"`
	FarmerID    uuid.UUID `json:"farmer_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalDays   int       `json:"total_days"`
	Usage       float64   `json:"usage"`
	Unit        string    `json:"unit"`
	TotalCost   float64   `json:"total_cost"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after every status transition.
type BookingStatusChangedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	EquipmentID uuid.UUID `json:"equipment_id"`
	FarmerID    uuid.UUID `json:"farmer_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	ChangedBy   uuid.UUID `json:"changed_by"`
	OwnerNotes  string    `json:"owner_notes,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingPaymentUpdatedEvent is published when the owner confirms or reverts payment.
type BookingPaymentUpdatedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	FarmerID      uuid.UUID  `json:"farmer_id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	PaymentStatus string     `json:"payment_status"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// UserAddress is the postal address carried on user events.
type UserAddress struct {
	Village  string `json:"village"`
	District string `json:"district"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// UserProfileEvent is the payload of user.registered and user.profile_updated.
type UserProfileEvent struct {
	UserID     uuid.UUID   `json:"user_id"`
	Name       string      `json:"name"`
	Phone      string      `json:"phone"`
	Role       string      `json:"role"`
	Address    UserAddress `json:"address"`
	OccurredAt time.Time   `json:"occurred_at"`
}
