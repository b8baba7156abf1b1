package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// Publisher converte eventos do motor de campanhas em entradas na
// fila de notificação. Fire-and-forget: o disparo nunca espera a
// entrega do webhook.
type Publisher struct {
	queue queue.Queue
	log   *zap.Logger
}

func NewPublisher(q queue.Queue, log *zap.Logger) *Publisher {
	return &Publisher{queue: q, log: log.Named("notify")}
}

func (p *Publisher) Publish(ctx context.Context, c model.Campaign, event string, payload map[string]interface{}) {
	ev := queue.Event{
		ID:         uuid.New().String(),
		CampaignID: c.ID,
		InstanceID: c.InstanceID,
		UserID:     c.UserID,
		Type:       event,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}

	if err := p.queue.Enqueue(ctx, ev); err != nil {
		p.log.Warn("falha ao enfileirar evento",
			zap.String("campaign_id", c.ID),
			zap.String("type", event),
			zap.Error(err),
		)
	}
}
