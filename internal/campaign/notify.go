package campaign

import (
	"context"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// Notifier empurra eventos de campanha para os clientes conectados.
// Fire-and-forget: falha de publicação nunca aborta o disparo.
type Notifier interface {
	Publish(ctx context.Context, c model.Campaign, event string, payload map[string]interface{})
}

// Nomes de eventos publicados pelo motor.
const (
	EventStatusChanged = "campaign.status"
	EventProgress      = "campaign.progress"
)

// NopNotifier descarta eventos; útil em testes e na CLI de migração.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, model.Campaign, string, map[string]interface{}) {}
