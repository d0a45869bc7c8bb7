package application

import (
	"context"

	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingComposer attaches equipment and party display fields to bookings.
// It runs after the transactional work is done, so lookup failures degrade the
// response to bare IDs instead of failing the request.
type BookingComposer struct {
	equipment EquipmentLookup
	parties   partyDomain.PartyRepository
	logger    *zap.Logger
}

// NewBookingComposer creates a new BookingComposer.
func NewBookingComposer(equipment EquipmentLookup, parties partyDomain.PartyRepository, logger *zap.Logger) *BookingComposer {
	return &BookingComposer{equipment: equipment, parties: parties, logger: logger}
}

// ComposeOne enriches a single booking.
func (c *BookingComposer) ComposeOne(ctx context.Context, bk *bookingDomain.Booking) BookingDTO {
	return c.Compose(ctx, []*bookingDomain.Booking{bk})[0]
}

// Compose enriches bookings in input order with one lookup per collaborator.
func (c *BookingComposer) Compose(ctx context.Context, bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	if len(bookings) == 0 {
		return dtos
	}

	equipmentIDs := make([]uuid.UUID, 0, len(bookings))
	partyIDs := make([]uuid.UUID, 0, 2*len(bookings))
	for _, bk := range bookings {
		equipmentIDs = append(equipmentIDs, bk.EquipmentID())
		partyIDs = append(partyIDs, bk.FarmerID(), bk.OwnerID())
	}

	equipment, err := c.equipment.FindByIDs(ctx, uniqueIDs(equipmentIDs))
	if err != nil {
		c.logger.Warn("failed to load equipment for bookings", zap.Error(err))
	}
	parties, err := c.parties.FindByIDs(ctx, uniqueIDs(partyIDs))
	if err != nil {
		c.logger.Warn("failed to load parties for bookings", zap.Error(err))
	}

	for i, bk := range bookings {
		dto := toBookingDTO(bk)
		if e, ok := equipment[bk.EquipmentID()]; ok {
			dto.Equipment.Name = e.Name()
			dto.Equipment.Category = string(e.Category())
			if e.Images() != nil {
				dto.Equipment.Images = e.Images()
			}
		}
		dto.Farmer = toPartySummary(bk.FarmerID(), parties[bk.FarmerID()])
		dto.Owner = toPartySummary(bk.OwnerID(), parties[bk.OwnerID()])
		dtos[i] = dto
	}
	return dtos
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
