package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/domain"
	"github.com/agrirent/service-booking/internal/common/kafka"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	"github.com/agrirent/service-booking/internal/metrics"
	"github.com/agrirent/service-booking/internal/proto/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventSource      = "service-booking"
	msgAlreadyBooked = "equipment is already booked for the selected dates"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	EquipmentID uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Usage       *float64
	FarmerNotes string
}

// UpdateStatusRequest holds a requested status transition.
type UpdateStatusRequest struct {
	Status     string
	OwnerNotes string
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	equipment EquipmentLookup
	pricing   bookingDomain.PricingStrategy
	composer  *BookingComposer
	producer  EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	equipment EquipmentLookup,
	pricing bookingDomain.PricingStrategy,
	composer *BookingComposer,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		equipment: equipment,
		pricing:   pricing,
		composer:  composer,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service clock.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// CreateBooking requests equipment for a date range on behalf of a farmer.
func (s *BookingService) CreateBooking(ctx context.Context, actor auth.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	eq, err := s.equipment.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if !eq.IsAvailable() {
		return nil, bookingDomain.ErrEquipmentUnavailable
	}
	if actor.Is(eq.OwnerID()) {
		return nil, domain.NewForbiddenError("you cannot book your own equipment")
	}

	now := s.now()
	period := bookingDomain.NewDateRange(req.StartDate, req.EndDate)
	if !period.IsOrdered() {
		return nil, domain.NewValidationError("end date cannot be before start date")
	}
	if period.StartsBefore(now) {
		return nil, domain.NewValidationError("start date cannot be in the past")
	}

	overlap, err := s.repo.HasOverlap(ctx, eq.ID(), period)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if overlap {
		metrics.IncBookingConflict()
		return nil, domain.NewConflictError(msgAlreadyBooked)
	}

	quote, err := s.pricing.Calculate(bookingDomain.PricingParams{
		Unit:   eq.PricingUnit(),
		Rate:   eq.DailyRate(),
		Period: period,
		Usage:  req.Usage,
	})
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		eq.ID(),
		actor.ID,
		eq.OwnerID(),
		period,
		eq.PricingUnit(),
		quote.Rate,
		quote,
		req.FarmerNotes,
		now,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveExclusive(ctx, bk); err != nil {
		if errors.Is(err, bookingDomain.ErrEquipmentUnavailable) || domain.IsNotFound(err) || domain.IsInvalidInput(err) {
			return nil, err
		}
		if domain.IsConflict(err) {
			metrics.IncBookingConflict()
			return nil, domain.NewConflictError(msgAlreadyBooked)
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	metrics.IncBookingCreated(string(bk.Unit()))

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("equipment_id", eq.ID().String()),
		zap.String("farmer_id", actor.ID.String()),
		zap.Float64("total_cost", bk.TotalCost()),
	)
	s.publishBookingRequested(ctx, bk)

	result := s.composer.ComposeOne(ctx, bk)
	return &result, nil
}

// CheckAvailability reports whether the period is free and lists the equipment's
// current and upcoming bookings. It uses the same overlap query as CreateBooking.
func (s *BookingService) CheckAvailability(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (*AvailabilityDTO, error) {
	period := bookingDomain.NewDateRange(start, end)
	if !period.IsOrdered() {
		return nil, domain.NewValidationError("end date cannot be before start date")
	}

	overlap, err := s.repo.HasOverlap(ctx, equipmentID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	upcoming, err := s.repo.FindUpcoming(ctx, equipmentID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}

	slots := make([]BookingSlotDTO, len(upcoming))
	for i, bk := range upcoming {
		slots[i] = toBookingSlotDTO(bk)
	}

	return &AvailabilityDTO{
		EquipmentID:      equipmentID,
		Available:        !overlap,
		ExistingBookings: slots,
	}, nil
}

// UpdateBookingStatus moves a booking through its lifecycle.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor auth.Actor, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	target := bookingDomain.BookingStatus(req.Status)
	if !target.IsValid() || target == bookingDomain.StatusPending {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid status: %s", req.Status))
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.ChangeStatus(actor, target, req.OwnerNotes, s.now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}
	metrics.IncStatusTransition(string(from), string(target))

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID.String()),
	)

	evt := events.BookingStatusChangedEvent{
		BookingID:   bk.ID(),
		EquipmentID: bk.EquipmentID(),
		FarmerID:    bk.FarmerID(),
		OwnerID:     bk.OwnerID(),
		FromStatus:  string(from),
		ToStatus:    string(target),
		ChangedBy:   actor.ID,
		OwnerNotes:  bk.OwnerNotes(),
		OccurredAt:  s.now(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bk.ID().String(), evt)

	result := s.composer.ComposeOne(ctx, bk)
	return &result, nil
}

// UpdatePaymentStatus records payment for a completed booking.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, actor auth.Actor, bookingID uuid.UUID, paymentStatus string) (*BookingDTO, error) {
	status, err := bookingDomain.ParsePaymentStatus(paymentStatus)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.SetPaymentStatus(actor, status, s.now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}
	if status == bookingDomain.PaymentReceived {
		metrics.IncPaymentReceived()
	}

	s.logger.Info("booking payment status updated",
		zap.String("booking_id", bk.ID().String()),
		zap.String("payment_status", string(status)),
	)

	evt := events.BookingPaymentUpdatedEvent{
		BookingID:     bk.ID(),
		FarmerID:      bk.FarmerID(),
		OwnerID:       bk.OwnerID(),
		PaymentStatus: string(status),
		ConfirmedAt:   bk.PaymentConfirmedAt(),
		Amount:        bk.TotalCost(),
		Currency:      domain.CurrencyINR,
		OccurredAt:    s.now(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingPaymentUpdated, bk.ID().String(), evt)

	result := s.composer.ComposeOne(ctx, bk)
	return &result, nil
}

// GetBookingByID retrieves a booking visible to the actor.
func (s *BookingService) GetBookingByID(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.CanBeViewedBy(actor) {
		return nil, domain.NewForbiddenError("not authorized to view this booking")
	}
	result := s.composer.ComposeOne(ctx, bk)
	return &result, nil
}

// ListFarmerBookings retrieves the actor's own bookings, newest first.
func (s *BookingService) ListFarmerBookings(ctx context.Context, actor auth.Actor, statusFilter string) ([]BookingDTO, error) {
	status, err := parseStatusFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByFarmerID(ctx, actor.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmer bookings: %w", err)
	}
	return s.composer.Compose(ctx, bookings), nil
}

// ListOwnerBookings retrieves bookings on the actor's equipment, newest first.
func (s *BookingService) ListOwnerBookings(ctx context.Context, actor auth.Actor, statusFilter string) ([]BookingDTO, error) {
	status, err := parseStatusFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.FindByOwnerID(ctx, actor.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner bookings: %w", err)
	}
	return s.composer.Compose(ctx, bookings), nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(s.composer.Compose(ctx, bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// parseStatusFilter treats "" and "all" as no filter.
func parseStatusFilter(filter string) (*bookingDomain.BookingStatus, error) {
	if filter == "" || filter == "all" {
		return nil, nil
	}
	status, err := bookingDomain.ParseBookingStatus(filter)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return &status, nil
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingRequestedEvent{
		BookingID:   bk.ID(),
		EquipmentID: bk.EquipmentID(),
		FarmerID:    bk.FarmerID(),
		OwnerID:     bk.OwnerID(),
		StartDate:   bk.StartDate(),
		EndDate:     bk.EndDate(),
		TotalDays:   bk.TotalDays(),
		Usage:       bk.Usage(),
		Unit:        string(bk.Unit()),
		TotalCost:   bk.TotalCost(),
		Currency:    domain.CurrencyINR,
		OccurredAt:  s.now(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
