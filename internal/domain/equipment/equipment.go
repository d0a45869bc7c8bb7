package equipment

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/domain"
	"github.com/agrirent/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// Equipment is the aggregate root for a rentable machine listing.
type Equipment struct {
	id             uuid.UUID
	ownerID        uuid.UUID
	name           string
	description    string
	category       Category
	images         []string
	dailyRate      float64
	pricingUnit    booking.PricingUnit
	specifications Specifications
	location       Location
	isAvailable    bool
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// Details holds the owner-editable fields of a listing.
type Details struct {
	Name           string
	Description    string
	Category       Category
	Images         []string
	DailyRate      float64
	PricingUnit    booking.PricingUnit
	Specifications Specifications
	Location       Location
}

// Changes is a partial update. Nil fields are left as they are.
type Changes struct {
	Name           *string
	Description    *string
	Category       *Category
	Images         []string
	DailyRate      *float64
	PricingUnit    *booking.PricingUnit
	Specifications *Specifications
	Location       *Location
	IsAvailable    *bool
}

// NewEquipment creates a new available listing with validated fields.
func NewEquipment(ownerID uuid.UUID, d Details, now time.Time) (*Equipment, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if d.PricingUnit == "" {
		d.PricingUnit = booking.UnitDay
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Specifications = d.Specifications.withDefaults()
	if err := d.validate(); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Equipment{
		id:             uuid.New(),
		ownerID:        ownerID,
		name:           d.Name,
		description:    d.Description,
		category:       d.Category,
		images:         d.Images,
		dailyRate:      d.DailyRate,
		pricingUnit:    d.PricingUnit,
		specifications: d.Specifications,
		location:       d.Location,
		isAvailable:    true,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds an Equipment from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	d Details,
	isAvailable bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Equipment {
	return &Equipment{
		id:             id,
		ownerID:        ownerID,
		name:           d.Name,
		description:    d.Description,
		category:       d.Category,
		images:         d.Images,
		dailyRate:      d.DailyRate,
		pricingUnit:    d.PricingUnit,
		specifications: d.Specifications,
		location:       d.Location,
		isAvailable:    isAvailable,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (e *Equipment) ID() uuid.UUID                        { return e.id }
func (e *Equipment) OwnerID() uuid.UUID                   { return e.ownerID }
func (e *Equipment) Name() string                         { return e.name }
func (e *Equipment) Description() string                  { return e.description }
func (e *Equipment) Category() Category                   { return e.category }
func (e *Equipment) Images() []string                     { return e.images }
func (e *Equipment) DailyRate() float64                   { return e.dailyRate }
func (e *Equipment) PricingUnit() booking.PricingUnit     { return e.pricingUnit }
func (e *Equipment) Specifications() Specifications       { return e.specifications }
func (e *Equipment) Location() Location                   { return e.location }
func (e *Equipment) IsAvailable() bool                    { return e.isAvailable }
func (e *Equipment) Version() int64                       { return e.version }
func (e *Equipment) CreatedAt() time.Time                 { return e.createdAt }
func (e *Equipment) UpdatedAt() time.Time                 { return e.updatedAt }

// Details returns the editable fields as a value.
func (e *Equipment) Details() Details {
	return Details{
		Name:           e.name,
		Description:    e.description,
		Category:       e.category,
		Images:         e.images,
		DailyRate:      e.dailyRate,
		PricingUnit:    e.pricingUnit,
		Specifications: e.specifications,
		Location:       e.location,
	}
}

// --- Behavior ---

// IsOwnedBy checks if the equipment belongs to the given user.
func (e *Equipment) IsOwnedBy(userID uuid.UUID) bool {
	return e.ownerID == userID
}

// CanBeManagedBy reports whether actor may edit or delete the listing.
func (e *Equipment) CanBeManagedBy(actor auth.Actor) bool {
	return actor.Is(e.ownerID) || actor.IsAdmin()
}

// Apply validates and applies a partial update.
func (e *Equipment) Apply(c Changes, now time.Time) error {
	d := e.Details()
	if c.Name != nil {
		d.Name = strings.TrimSpace(*c.Name)
	}
	if c.Description != nil {
		d.Description = *c.Description
	}
	if c.Category != nil {
		d.Category = *c.Category
	}
	if c.Images != nil {
		d.Images = c.Images
	}
	if c.DailyRate != nil {
		d.DailyRate = *c.DailyRate
	}
	if c.PricingUnit != nil {
		d.PricingUnit = *c.PricingUnit
	}
	if c.Specifications != nil {
		d.Specifications = c.Specifications.withDefaults()
	}
	if c.Location != nil {
		d.Location = *c.Location
	}
	if err := d.validate(); err != nil {
		return err
	}

	e.name = d.Name
	e.description = d.Description
	e.category = d.Category
	e.images = d.Images
	e.dailyRate = d.DailyRate
	e.pricingUnit = d.PricingUnit
	e.specifications = d.Specifications
	e.location = d.Location
	if c.IsAvailable != nil {
		e.isAvailable = *c.IsAvailable
	}
	e.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (e *Equipment) IncrementVersion() {
	e.version++
}

func (d Details) validate() error {
	switch {
	case d.Name == "":
		return domain.NewValidationError("equipment name is required")
	case utf8.RuneCountInString(d.Name) > maxNameLength:
		return domain.NewValidationError(fmt.Sprintf("name cannot be more than %d characters", maxNameLength))
	case strings.TrimSpace(d.Description) == "":
		return domain.NewValidationError("description is required")
	case utf8.RuneCountInString(d.Description) > maxDescriptionLength:
		return domain.NewValidationError(fmt.Sprintf("description cannot be more than %d characters", maxDescriptionLength))
	case !d.Category.IsValid():
		return domain.NewValidationError(fmt.Sprintf("invalid category: %s", d.Category))
	case d.DailyRate < 0:
		return domain.NewValidationError("rate cannot be negative")
	case !d.PricingUnit.IsValid():
		return domain.NewValidationError(fmt.Sprintf("invalid pricing unit: %s", d.PricingUnit))
	case !d.Specifications.Condition.IsValid():
		return domain.NewValidationError(fmt.Sprintf("invalid condition: %s", d.Specifications.Condition))
	}
	return nil
}
