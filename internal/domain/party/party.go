package party

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Address is a party's postal address as held by the identity service.
type Address struct {
	Village  string `json:"village,omitempty"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

// Party is the local projection of a user from the identity service, kept only
// for display next to bookings and listings.
type Party struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Role      string
	Address   Address
	UpdatedAt time.Time
}

// PartyRepository stores the projection.
type PartyRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Party, error)
	Upsert(ctx context.Context, p *Party) error
}
