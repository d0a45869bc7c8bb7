package application

import (
	"time"

	"github.com/agrirent/service-booking/internal/common/domain"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/google/uuid"
)

// EquipmentSummaryDTO is the equipment display block attached to a booking.
type EquipmentSummaryDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Images   []string  `json:"images"`
	Category string    `json:"category"`
}

// PartySummaryDTO is the farmer or owner display block attached to a booking or listing.
type PartySummaryDTO struct {
	ID      uuid.UUID            `json:"id"`
	Name    string               `json:"name"`
	Phone   string               `json:"phone"`
	Address *partyDomain.Address `json:"address,omitempty"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID           `json:"id"`
	Equipment          EquipmentSummaryDTO `json:"equipment"`
	Farmer             PartySummaryDTO     `json:"farmer"`
	Owner              PartySummaryDTO     `json:"owner"`
	StartDate          time.Time           `json:"start_date"`
	EndDate            time.Time           `json:"end_date"`
	TotalDays          int                 `json:"total_days"`
	Usage              float64             `json:"usage"`
	Unit               string              `json:"unit"`
	DailyRate          float64             `json:"daily_rate"`
	TotalCost          float64             `json:"total_cost"`
	Currency           string              `json:"currency"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentConfirmedAt *time.Time          `json:"payment_confirmed_at,omitempty"`
	FarmerNotes        string              `json:"farmer_notes,omitempty"`
	OwnerNotes         string              `json:"owner_notes,omitempty"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// BookingSlotDTO is a booked period shown on the availability calendar.
type BookingSlotDTO struct {
	ID        uuid.UUID `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
}

// AvailabilityDTO answers whether a period can be booked.
type AvailabilityDTO struct {
	EquipmentID      uuid.UUID        `json:"equipment_id"`
	Available        bool             `json:"available"`
	ExistingBookings []BookingSlotDTO `json:"existing_bookings"`
}

// EquipmentDTO is the API response representation of a listing.
type EquipmentDTO struct {
	ID             uuid.UUID                      `json:"id"`
	Owner          PartySummaryDTO                `json:"owner"`
	Name           string                         `json:"name"`
	Description    string                         `json:"description"`
	Category       string                         `json:"category"`
	Images         []string                       `json:"images"`
	DailyRate      float64                        `json:"daily_rate"`
	PricingUnit    string                         `json:"pricing_unit"`
	Currency       string                         `json:"currency"`
	Specifications equipmentDomain.Specifications `json:"specifications"`
	Location       equipmentDomain.Location       `json:"location"`
	IsAvailable    bool                           `json:"is_available"`
	CreatedAt      time.Time                      `json:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at"`
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		Equipment:          EquipmentSummaryDTO{ID: bk.EquipmentID(), Images: []string{}},
		Farmer:             PartySummaryDTO{ID: bk.FarmerID()},
		Owner:              PartySummaryDTO{ID: bk.OwnerID()},
		StartDate:          bk.StartDate(),
		EndDate:            bk.EndDate(),
		TotalDays:          bk.TotalDays(),
		Usage:              bk.Usage(),
		Unit:               string(bk.Unit()),
		DailyRate:          bk.DailyRate(),
		TotalCost:          bk.TotalCost(),
		Currency:           domain.CurrencyINR,
		Status:             string(bk.Status()),
		PaymentStatus:      string(bk.PaymentStatus()),
		PaymentConfirmedAt: bk.PaymentConfirmedAt(),
		FarmerNotes:        bk.FarmerNotes(),
		OwnerNotes:         bk.OwnerNotes(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toBookingSlotDTO(bk *bookingDomain.Booking) BookingSlotDTO {
	return BookingSlotDTO{
		ID:        bk.ID(),
		StartDate: bk.StartDate(),
		EndDate:   bk.EndDate(),
		Status:    string(bk.Status()),
	}
}

func toEquipmentDTO(e *equipmentDomain.Equipment) EquipmentDTO {
	images := e.Images()
	if images == nil {
		images = []string{}
	}
	return EquipmentDTO{
		ID:             e.ID(),
		Owner:          PartySummaryDTO{ID: e.OwnerID()},
		Name:           e.Name(),
		Description:    e.Description(),
		Category:       string(e.Category()),
		Images:         images,
		DailyRate:      e.DailyRate(),
		PricingUnit:    string(e.PricingUnit()),
		Currency:       domain.CurrencyINR,
		Specifications: e.Specifications(),
		Location:       e.Location(),
		IsAvailable:    e.IsAvailable(),
		CreatedAt:      e.CreatedAt(),
		UpdatedAt:      e.UpdatedAt(),
	}
}

// toPartySummary returns an empty display block when the party is unknown.
func toPartySummary(id uuid.UUID, p *partyDomain.Party) PartySummaryDTO {
	summary := PartySummaryDTO{ID: id}
	if p == nil {
		return summary
	}
	addr := p.Address
	summary.Name = p.Name
	summary.Phone = p.Phone
	summary.Address = &addr
	return summary
}
