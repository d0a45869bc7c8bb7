package auth

import (
	"github.com/google/uuid"
)

// Role is the marketplace role carried in an access token.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated principal on whose behalf an operation runs.
// It is passed explicitly into every use case.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// NewActor builds an Actor.
func NewActor(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

// Is reports whether the actor has the given identity.
func (a Actor) Is(id uuid.UUID) bool {
	return a.ID != uuid.Nil && a.ID == id
}

// IsAdmin reports whether the actor holds the administrative role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
