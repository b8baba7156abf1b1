package storage

import (
	"context"
	"time"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

var ErrNotFound = model.ErrNotFound

type InstanceRepository interface {
	Create(ctx context.Context, instance model.Instance) (model.Instance, error)
	GetByID(ctx context.Context, id string) (model.Instance, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]model.Instance, error)
	Update(ctx context.Context, instance model.Instance) (model.Instance, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign model.Campaign) (model.Campaign, error)
	GetByID(ctx context.Context, id string) (model.Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]model.Campaign, error)
	// Update persiste os campos mutáveis em DRAFT (nome, descrição,
	// mensagem, agendamento, settings).
	Update(ctx context.Context, campaign model.Campaign) (model.Campaign, error)
	// UpdateState persiste status, timestamps de ciclo de vida,
	// motivo de falha e cursor.
	UpdateState(ctx context.Context, campaign model.Campaign) error
	SaveCursor(ctx context.Context, id string, cursor []byte) error
	Delete(ctx context.Context, id string) error
	CountStartedByUser(ctx context.Context, userID string) (int, error)
	ListByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error)
}

type RecipientRepository interface {
	BulkCreate(ctx context.Context, recipients []model.CampaignRecipient) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error)
	Update(ctx context.Context, recipient model.CampaignRecipient) error
	GetByGatewayMessageID(ctx context.Context, gatewayMessageID string) (model.CampaignRecipient, error)
	CountByStatus(ctx context.Context, campaignID string) (model.CampaignStats, error)
	DeleteByCampaign(ctx context.Context, campaignID string) error
}
