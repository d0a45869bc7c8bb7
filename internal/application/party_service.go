package application

import (
	"context"
	"fmt"
	"time"

	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/agrirent/service-booking/internal/proto/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartyService maintains the local projection of identity profiles.
type PartyService struct {
	repo   partyDomain.PartyRepository
	logger *zap.Logger
}

// NewPartyService creates a new PartyService.
func NewPartyService(repo partyDomain.PartyRepository, logger *zap.Logger) *PartyService {
	return &PartyService{repo: repo, logger: logger}
}

// ApplyProfile upserts the projection from a user profile event.
// Events older than the stored row are ignored.
func (s *PartyService) ApplyProfile(ctx context.Context, evt events.UserProfileEvent) error {
	if evt.UserID == uuid.Nil {
		return fmt.Errorf("user event has no user ID")
	}

	existing, err := s.repo.FindByIDs(ctx, []uuid.UUID{evt.UserID})
	if err != nil {
		return fmt.Errorf("failed to load party: %w", err)
	}
	if p, ok := existing[evt.UserID]; ok && !evt.OccurredAt.IsZero() && evt.OccurredAt.Before(p.UpdatedAt) {
		s.logger.Debug("ignoring stale user profile event",
			zap.String("user_id", evt.UserID.String()),
		)
		return nil
	}

	occurredAt := evt.OccurredAt.UTC()
	if evt.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	p := &partyDomain.Party{
		ID:    evt.UserID,
		Name:  evt.Name,
		Phone: evt.Phone,
		Role:  evt.Role,
		Address: partyDomain.Address{
			Village:  evt.Address.Village,
			District: evt.Address.District,
			State:    evt.Address.State,
			Pincode:  evt.Address.Pincode,
		},
		UpdatedAt: occurredAt,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to upsert party: %w", err)
	}

	s.logger.Info("party projection updated", zap.String("user_id", evt.UserID.String()))
	return nil
}
