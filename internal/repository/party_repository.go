package repository

import (
	"context"
	"fmt"
	"time"

	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartyModel is the GORM model for the parties projection table.
type PartyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Phone     string    `gorm:"type:varchar(20)"`
	Role      string    `gorm:"type:varchar(20)"`
	Village   string    `gorm:"type:varchar(100)"`
	District  string    `gorm:"type:varchar(100)"`
	State     string    `gorm:"type:varchar(100)"`
	Pincode   string    `gorm:"type:varchar(10)"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (PartyModel) TableName() string { return "parties" }

// GormPartyRepository implements PartyRepository using GORM.
type GormPartyRepository struct {
	db *gorm.DB
}

func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByIDs loads the parties that are known. Unknown IDs are absent from the map.
func (r *GormPartyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*partyDomain.Party, error) {
	out := make(map[uuid.UUID]*partyDomain.Party, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []PartyModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find parties: %w", err)
	}
	for _, m := range models {
		out[m.ID] = &partyDomain.Party{
			ID:    m.ID,
			Name:  m.Name,
			Phone: m.Phone,
			Role:  m.Role,
			Address: partyDomain.Address{
				Village:  m.Village,
				District: m.District,
				State:    m.State,
				Pincode:  m.Pincode,
			},
			UpdatedAt: m.UpdatedAt.UTC(),
		}
	}
	return out, nil
}

// Upsert inserts the party or overwrites the stored row.
func (r *GormPartyRepository) Upsert(ctx context.Context, p *partyDomain.Party) error {
	model := PartyModel{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Role:      p.Role,
		Village:   p.Address.Village,
		District:  p.Address.District,
		State:     p.Address.State,
		Pincode:   p.Address.Pincode,
		UpdatedAt: p.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "role", "village", "district", "state", "pincode", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert party: %w", err)
	}
	return nil
}
