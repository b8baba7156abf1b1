package campaign

import (
	"context"
	"errors"

	engine "github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// storeAdapter projeta os repositórios na visão estreita que o motor
// de disparo usa.
type storeAdapter struct {
	campaigns  storage.CampaignRepository
	recipients storage.RecipientRepository
}

// NewStore monta a visão do motor sobre os repositórios.
func NewStore(campaigns storage.CampaignRepository, recipients storage.RecipientRepository) *storeAdapter {
	return &storeAdapter{campaigns: campaigns, recipients: recipients}
}

func (s *storeAdapter) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Campaign{}, engine.ErrCampaignNotFound
	}
	return c, err
}

func (s *storeAdapter) ListRecipients(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error) {
	return s.recipients.ListByCampaign(ctx, campaignID)
}

func (s *storeAdapter) ListCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	return s.campaigns.ListByStatus(ctx, status)
}

func (s *storeAdapter) SaveCampaignState(ctx context.Context, c model.Campaign) error {
	return s.campaigns.UpdateState(ctx, c)
}

func (s *storeAdapter) SaveRecipient(ctx context.Context, r model.CampaignRecipient) error {
	return s.recipients.Update(ctx, r)
}

func (s *storeAdapter) SaveCursor(ctx context.Context, campaignID string, cursor []byte) error {
	return s.campaigns.SaveCursor(ctx, campaignID, cursor)
}
