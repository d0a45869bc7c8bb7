package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrirent/service-booking/internal/common/domain"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// exclusionViolation is the SQLSTATE raised by the bookings_no_overlap constraint.
	exclusionViolation = "23P01"
	checkViolation     = "23514"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EquipmentID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	FarmerID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	OwnerID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartDate          time.Time  `gorm:"type:timestamptz;not null"`
	EndDate            time.Time  `gorm:"type:timestamptz;not null"`
	TotalDays          int        `gorm:"not null"`
	Usage              float64    `gorm:"type:numeric(10,2);not null"`
	Unit               string     `gorm:"not null;size:10"`
	DailyRate          float64    `gorm:"type:numeric(12,2);not null"`
	TotalCost          float64    `gorm:"type:numeric(12,2);not null"`
	Status             string     `gorm:"not null;size:20;index"`
	PaymentStatus      string     `gorm:"not null;size:20"`
	PaymentConfirmedAt *time.Time `gorm:"type:timestamptz"`
	FarmerNotes        string     `gorm:"size:500"`
	OwnerNotes         string     `gorm:"size:500"`
	Version            int64      `gorm:"not null"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// blocking limits a query to bookings that still hold their dates.
func blocking(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", bookingDomain.StatusStrings(bookingDomain.BlockingStatuses))
}

// overlapping is the single overlap predicate shared by the availability check
// and the exclusive insert.
func overlapping(equipmentID uuid.UUID, period bookingDomain.DateRange) func(*gorm.DB) *gorm.DB {
	from, until := period.QueryBounds()
	return func(db *gorm.DB) *gorm.DB {
		return blocking(db.Where("equipment_id = ?", equipmentID)).
			Where("start_date < ? AND end_date >= ?", until, from)
	}
}

func withStatus(status *bookingDomain.BookingStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == nil {
			return db
		}
		return db.Where("status = ?", string(*status))
	}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByFarmerID retrieves a farmer's bookings, newest first.
func (r *GormBookingRepository) FindByFarmerID(ctx context.Context, farmerID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Scopes(withStatus(status)).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find farmer bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByOwnerID retrieves bookings on an owner's equipment, newest first.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Scopes(withStatus(status)).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner bookings: %w", err)
	}
	return toDomainBookings(models)
}

// HasOverlap reports whether a blocking booking on the equipment shares a day with period.
func (r *GormBookingRepository) HasOverlap(ctx context.Context, equipmentID uuid.UUID, period bookingDomain.DateRange) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Scopes(overlapping(equipmentID, period)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return count > 0, nil
}

// FindUpcoming retrieves blocking bookings on the equipment ending at or after from, earliest first.
func (r *GormBookingRepository) FindUpcoming(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Scopes(blocking).
		Where("end_date >= ?", from).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find upcoming bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountBlocking counts pending, approved and active bookings on the equipment.
func (r *GormBookingRepository) CountBlocking(ctx context.Context, equipmentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("equipment_id = ?", equipmentID).
		Scopes(blocking).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count equipment bookings: %w", err)
	}
	return count, nil
}

// lockEquipment takes the per-equipment transaction lock shared by booking
// inserts and equipment deletion.
func lockEquipment(tx *gorm.DB, equipmentID uuid.UUID) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", equipmentID.String()).Error; err != nil {
		return fmt.Errorf("failed to lock equipment: %w", err)
	}
	return nil
}

// SaveExclusive inserts a new booking while holding a per-equipment advisory lock.
// Under the lock it re-reads the equipment row (FOR SHARE) and re-runs the overlap
// check. The bookings_no_overlap exclusion constraint backs this up for writers
// that bypass the lock.
func (r *GormBookingRepository) SaveExclusive(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEquipment(tx, model.EquipmentID); err != nil {
			return err
		}

		var available []bool
		if err := tx.Model(&EquipmentModel{}).
			Where("id = ?", model.EquipmentID).
			Clauses(clause.Locking{Strength: "SHARE"}).
			Pluck("is_available", &available).Error; err != nil {
			return fmt.Errorf("failed to read equipment: %w", err)
		}
		if len(available) == 0 {
			return domain.NewNotFoundError("Equipment", model.EquipmentID.String())
		}
		if !available[0] {
			return bookingDomain.ErrEquipmentUnavailable
		}

		var count int64
		if err := tx.Model(&BookingModel{}).
			Scopes(overlapping(bk.EquipmentID(), bk.Period())).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check booking overlap: %w", err)
		}
		if count > 0 {
			return domain.NewConflictError("overlapping booking exists")
		}

		if err := tx.Create(model).Error; err != nil {
			if isExclusionViolation(err) {
				return domain.NewConflictError("overlapping booking exists")
			}
			if constraint, ok := checkViolationOf(err); ok {
				return domain.NewValidationError(fmt.Sprintf("booking rejected by %s", constraint))
			}
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"payment_status":       model.PaymentStatus,
			"payment_confirmed_at": model.PaymentConfirmedAt,
			"owner_notes":          model.OwnerNotes,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}

func checkViolationOf(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                 bk.ID(),
		EquipmentID:        bk.EquipmentID(),
		FarmerID:           bk.FarmerID(),
		OwnerID:            bk.OwnerID(),
		StartDate:          bk.StartDate(),
		EndDate:            bk.EndDate(),
		TotalDays:          bk.TotalDays(),
		Usage:              bk.Usage(),
		Unit:               string(bk.Unit()),
		DailyRate:          bk.DailyRate(),
		TotalCost:          bk.TotalCost(),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := bookingDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}
	unit, err := bookingDomain.ParsePricingUnit(m.Unit)
	if err != nil {
		return nil, err
	}

	var confirmedAt *time.Time
	if m.PaymentConfirmedAt != nil {
		t := m.PaymentConfirmedAt.UTC()
		confirmedAt = &t
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.EquipmentID,
		m.FarmerID,
		m.OwnerID,
		bookingDomain.NewDateRange(m.StartDate, m.EndDate),
		m.TotalDays,
		m.Usage,
		unit,
		m.DailyRate,
		m.TotalCost,
		status,
		paymentStatus,
		confirmedAt,
		m.FarmerNotes,
		m.OwnerNotes,
		m.Version,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
