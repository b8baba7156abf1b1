package campaign

import (
	"context"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// Store é a visão do motor sobre a persistência de campanhas. É o
// único recurso mutável compartilhado: todas as escritas de uma
// campanha em execução passam pelo dispatcher dono dela.
type Store interface {
	GetCampaign(ctx context.Context, id string) (model.Campaign, error)
	ListRecipients(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error)
	ListCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error)
	// SaveCampaignState persiste status, timestamps, motivo e cursor.
	SaveCampaignState(ctx context.Context, c model.Campaign) error
	// SaveRecipient persiste o resultado de uma tentativa de envio.
	SaveRecipient(ctx context.Context, r model.CampaignRecipient) error
	// SaveCursor persiste apenas o cursor, sem tocar no status.
	SaveCursor(ctx context.Context, campaignID string, cursor []byte) error
}
