package application

import (
	"context"
	"fmt"
	"time"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/domain"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateEquipmentRequest is the request DTO for listing equipment.
type CreateEquipmentRequest struct {
	Name           string                         `json:"name" binding:"required"`
	Description    string                         `json:"description" binding:"required"`
	Category       string                         `json:"category" binding:"required"`
	Images         []string                       `json:"images"`
	DailyRate      float64                        `json:"daily_rate"`
	PricingUnit    string                         `json:"pricing_unit"`
	Specifications equipmentDomain.Specifications `json:"specifications"`
	Location       *equipmentDomain.Location      `json:"location"`
}

// UpdateEquipmentRequest is the request DTO for editing a listing. Omitted fields are unchanged.
type UpdateEquipmentRequest struct {
	Name           *string                         `json:"name"`
	Description    *string                         `json:"description"`
	Category       *string                         `json:"category"`
	Images         []string                        `json:"images"`
	DailyRate      *float64                        `json:"daily_rate"`
	PricingUnit    *string                         `json:"pricing_unit"`
	Specifications *equipmentDomain.Specifications `json:"specifications"`
	Location       *equipmentDomain.Location       `json:"location"`
	IsAvailable    *bool                           `json:"is_available"`
}

// EquipmentService implements use cases for the equipment catalog.
type EquipmentService struct {
	repo     equipmentDomain.EquipmentRepository
	bookings BookingUsage
	parties  partyDomain.PartyRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewEquipmentService creates a new EquipmentService.
func NewEquipmentService(
	repo equipmentDomain.EquipmentRepository,
	bookings BookingUsage,
	parties partyDomain.PartyRepository,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		repo:     repo,
		bookings: bookings,
		parties:  parties,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListEquipment returns listings matching the filter, newest first.
func (s *EquipmentService) ListEquipment(ctx context.Context, filter equipmentDomain.Filter) ([]EquipmentDTO, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, domain.NewValidationError("minPrice cannot be greater than maxPrice")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return s.withOwners(ctx, items), nil
}

// GetEquipment returns a single listing.
func (s *EquipmentService) GetEquipment(ctx context.Context, id uuid.UUID) (*EquipmentDTO, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.withOwners(ctx, []*equipmentDomain.Equipment{e})[0]
	return &result, nil
}

// ListMyEquipment returns the actor's own listings, newest first.
func (s *EquipmentService) ListMyEquipment(ctx context.Context, actor auth.Actor) ([]EquipmentDTO, error) {
	items, err := s.repo.FindByOwnerID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner equipment: %w", err)
	}
	dtos := make([]EquipmentDTO, len(items))
	for i, e := range items {
		dtos[i] = toEquipmentDTO(e)
	}
	return dtos, nil
}

// Categories returns every equipment category.
func (s *EquipmentService) Categories() []string {
	out := make([]string, len(equipmentDomain.Categories))
	for i, c := range equipmentDomain.Categories {
		out[i] = string(c)
	}
	return out
}

// CreateEquipment lists a new machine owned by the actor. Without a location the
// owner's address from the party directory is used.
func (s *EquipmentService) CreateEquipment(ctx context.Context, actor auth.Actor, req CreateEquipmentRequest) (*EquipmentDTO, error) {
	unit, err := bookingDomain.ParsePricingUnit(req.PricingUnit)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	var location equipmentDomain.Location
	if req.Location != nil {
		location = *req.Location
	}
	if location.IsZero() {
		location = s.ownerAddress(ctx, actor.ID)
	}

	e, err := equipmentDomain.NewEquipment(actor.ID, equipmentDomain.Details{
		Name:           req.Name,
		Description:    req.Description,
		Category:       equipmentDomain.Category(req.Category),
		Images:         req.Images,
		DailyRate:      req.DailyRate,
		PricingUnit:    unit,
		Specifications: req.Specifications,
		Location:       location,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save equipment: %w", err)
	}

	s.logger.Info("equipment listed",
		zap.String("equipment_id", e.ID().String()),
		zap.String("owner_id", actor.ID.String()),
	)

	result := toEquipmentDTO(e)
	return &result, nil
}

// UpdateEquipment edits a listing owned by the actor, or any listing for an admin.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, actor auth.Actor, id uuid.UUID, req UpdateEquipmentRequest) (*EquipmentDTO, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.CanBeManagedBy(actor) {
		return nil, domain.NewForbiddenError("not authorized to update this equipment")
	}

	changes := equipmentDomain.Changes{
		Name:           req.Name,
		Description:    req.Description,
		Images:         req.Images,
		DailyRate:      req.DailyRate,
		Specifications: req.Specifications,
		Location:       req.Location,
		IsAvailable:    req.IsAvailable,
	}
	if req.Category != nil {
		c := equipmentDomain.Category(*req.Category)
		changes.Category = &c
	}
	if req.PricingUnit != nil {
		unit, err := bookingDomain.ParsePricingUnit(*req.PricingUnit)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		changes.PricingUnit = &unit
	}

	if err := e.Apply(changes, s.now()); err != nil {
		return nil, err
	}

	e.IncrementVersion()
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("equipment updated", zap.String("equipment_id", e.ID().String()))

	result := toEquipmentDTO(e)
	return &result, nil
}

// DeleteEquipment removes a listing unless pending, approved or active bookings still hold it.
// The repository repeats the check under the equipment lock.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !e.CanBeManagedBy(actor) {
		return domain.NewForbiddenError("not authorized to delete this equipment")
	}

	held, err := s.bookings.CountBlocking(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check equipment bookings: %w", err)
	}
	if held > 0 {
		return domain.NewConflictError("cannot delete equipment with active bookings")
	}

	if err := s.repo.DeleteUnlessBooked(ctx, id); err != nil {
		return err
	}

	s.logger.Info("equipment deleted",
		zap.String("equipment_id", id.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// --- Helpers ---

func (s *EquipmentService) withOwners(ctx context.Context, items []*equipmentDomain.Equipment) []EquipmentDTO {
	ids := make([]uuid.UUID, len(items))
	for i, e := range items {
		ids[i] = e.OwnerID()
	}

	owners, err := s.parties.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		s.logger.Warn("failed to load equipment owners", zap.Error(err))
	}

	dtos := make([]EquipmentDTO, len(items))
	for i, e := range items {
		dtos[i] = toEquipmentDTO(e)
		dtos[i].Owner = toPartySummary(e.OwnerID(), owners[e.OwnerID()])
	}
	return dtos
}

func (s *EquipmentService) ownerAddress(ctx context.Context, ownerID uuid.UUID) equipmentDomain.Location {
	found, err := s.parties.FindByIDs(ctx, []uuid.UUID{ownerID})
	if err != nil {
		s.logger.Warn("failed to load owner address", zap.Error(err))
		return equipmentDomain.Location{}
	}
	p, ok := found[ownerID]
	if !ok {
		return equipmentDomain.Location{}
	}
	return equipmentDomain.Location{
		Village:  p.Address.Village,
		District: p.Address.District,
		State:    p.Address.State,
		Pincode:  p.Address.Pincode,
	}
}
