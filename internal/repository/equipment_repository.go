package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrirent/service-booking/internal/common/domain"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EquipmentModel is the GORM model for the equipment table.
type EquipmentModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"type:varchar(100);not null"`
	Description    string          `gorm:"type:varchar(1000);not null"`
	Category       string          `gorm:"type:varchar(20);not null;index"`
	Images         json.RawMessage `gorm:"type:jsonb;not null"`
	DailyRate      float64         `gorm:"type:numeric(12,2);not null"`
	PricingUnit    string          `gorm:"type:varchar(10);not null"`
	Specifications json.RawMessage `gorm:"type:jsonb;not null"`
	Location       json.RawMessage `gorm:"type:jsonb;not null"`
	IsAvailable    bool            `gorm:"not null"`
	Version        int64           `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"type:timestamptz;not null"`
	UpdatedAt      time.Time       `gorm:"type:timestamptz;not null"`
}

func (EquipmentModel) TableName() string { return "equipment" }

// GormEquipmentRepository implements EquipmentRepository using GORM.
type GormEquipmentRepository struct {
	db *gorm.DB
}

func NewGormEquipmentRepository(db *gorm.DB) *GormEquipmentRepository {
	return &GormEquipmentRepository{db: db}
}

func (r *GormEquipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*equipmentDomain.Equipment, error) {
	var model EquipmentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Equipment", id.String())
		}
		return nil, fmt.Errorf("failed to find equipment by ID: %w", err)
	}
	return toEquipmentDomain(&model)
}

// FindByIDs loads several listings in one query. Missing IDs are absent from the map.
func (r *GormEquipmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*equipmentDomain.Equipment, error) {
	out := make(map[uuid.UUID]*equipmentDomain.Equipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []EquipmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find equipment: %w", err)
	}
	for i := range models {
		e, err := toEquipmentDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out[e.ID()] = e
	}
	return out, nil
}

func (r *GormEquipmentRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*equipmentDomain.Equipment, error) {
	var models []EquipmentModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner equipment: %w", err)
	}
	return toEquipmentDomains(models)
}

// List returns listings matching the filter, newest first.
func (r *GormEquipmentRepository) List(ctx context.Context, filter equipmentDomain.Filter) ([]*equipmentDomain.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&EquipmentModel{})
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if filter.MinPrice != nil {
		q = q.Where("daily_rate >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("daily_rate <= ?", *filter.MaxPrice)
	}
	if filter.District != "" {
		q = q.Where("location->>'district' ILIKE ?", "%"+filter.District+"%")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	var models []EquipmentModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return toEquipmentDomains(models)
}

func (r *GormEquipmentRepository) Save(ctx context.Context, e *equipmentDomain.Equipment) error {
	model, err := toEquipmentModel(e)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save equipment: %w", err)
	}
	return nil
}

func (r *GormEquipmentRepository) Update(ctx context.Context, e *equipmentDomain.Equipment) error {
	model, err := toEquipmentModel(e)
	if err != nil {
		return err
	}
	previousVersion := e.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&EquipmentModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":           model.Name,
			"description":    model.Description,
			"category":       model.Category,
			"images":         model.Images,
			"daily_rate":     model.DailyRate,
			"pricing_unit":   model.PricingUnit,
			"specifications": model.Specifications,
			"location":       model.Location,
			"is_available":   model.IsAvailable,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update equipment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("equipment was modified by another transaction")
	}
	return nil
}

// DeleteUnlessBooked removes a listing unless a pending, approved or active booking
// references it. It holds the same per-equipment lock as SaveExclusive, so a
// booking cannot be inserted between the check and the delete.
func (r *GormEquipmentRepository) DeleteUnlessBooked(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEquipment(tx, id); err != nil {
			return err
		}

		var held int64
		if err := tx.Model(&BookingModel{}).
			Where("equipment_id = ?", id).
			Scopes(blocking).
			Count(&held).Error; err != nil {
			return fmt.Errorf("failed to count equipment bookings: %w", err)
		}
		if held > 0 {
			return domain.NewConflictError("cannot delete equipment with active bookings")
		}

		result := tx.Where("id = ?", id).Delete(&EquipmentModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete equipment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Equipment", id.String())
		}
		return nil
	})
}

// --- Conversions ---

func toEquipmentModel(e *equipmentDomain.Equipment) (*EquipmentModel, error) {
	images := e.Images()
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	specJSON, err := json.Marshal(e.Specifications())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal specifications: %w", err)
	}
	locationJSON, err := json.Marshal(e.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}

	return &EquipmentModel{
		ID:             e.ID(),
		OwnerID:        e.OwnerID(),
		Name:           e.Name(),
		Description:    e.Description(),
		Category:       string(e.Category()),
		Images:         imagesJSON,
		DailyRate:      e.DailyRate(),
		PricingUnit:    string(e.PricingUnit()),
		Specifications: specJSON,
		Location:       locationJSON,
		IsAvailable:    e.IsAvailable(),
		Version:        e.Version(),
		CreatedAt:      e.CreatedAt(),
		UpdatedAt:      e.UpdatedAt(),
	}, nil
}

func toEquipmentDomain(m *EquipmentModel) (*equipmentDomain.Equipment, error) {
	var images []string
	if len(m.Images) > 0 {
		if err := json.Unmarshal(m.Images, &images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}

	var spec equipmentDomain.Specifications
	if len(m.Specifications) > 0 {
		if err := json.Unmarshal(m.Specifications, &spec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
		}
	}

	var location equipmentDomain.Location
	if len(m.Location) > 0 {
		if err := json.Unmarshal(m.Location, &location); err != nil {
			return nil, fmt.Errorf("failed to unmarshal location: %w", err)
		}
	}

	unit, err := bookingDomain.ParsePricingUnit(m.PricingUnit)
	if err != nil {
		return nil, err
	}

	return equipmentDomain.Reconstruct(
		m.ID, m.OwnerID,
		equipmentDomain.Details{
			Name:           m.Name,
			Description:    m.Description,
			Category:       equipmentDomain.Category(m.Category),
			Images:         images,
			DailyRate:      m.DailyRate,
			PricingUnit:    unit,
			Specifications: spec,
			Location:       location,
		},
		m.IsAvailable,
		m.Version,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	), nil
}

func toEquipmentDomains(models []EquipmentModel) ([]*equipmentDomain.Equipment, error) {
	items := make([]*equipmentDomain.Equipment, len(models))
	for i := range models {
		e, err := toEquipmentDomain(&models[i])
		if err != nil {
			return nil, err
		}
		items[i] = e
	}
	return items, nil
}
