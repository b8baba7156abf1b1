package campaign

import (
	"sync"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// StatsAggregator mantém os contadores derivados de cada campanha
// (pending/sent/delivered/read/failed). Os incrementos são
// idempotentes por destinatário: registrar o mesmo status duas vezes
// para o mesmo id não altera nada, o que tolera entrega
// at-least-once dos eventos internos. A fonte da verdade continua
// sendo o status persistido dos destinatários; o agregador é um
// cache de leitura para polling e notificações.
type StatsAggregator struct {
	mu        sync.RWMutex
	campaigns map[string]*campaignCounters
}

type campaignCounters struct {
	statuses map[string]model.RecipientStatus
}

func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{campaigns: make(map[string]*campaignCounters)}
}

// Prime carrega o estado atual dos destinatários de uma campanha.
// Chamado ao iniciar/retomar um dispatcher e em leituras frias.
func (a *StatsAggregator) Prime(campaignID string, recipients []model.CampaignRecipient) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cc := &campaignCounters{statuses: make(map[string]model.RecipientStatus, len(recipients))}
	for _, r := range recipients {
		cc.statuses[r.ID] = r.Status
	}
	a.campaigns[campaignID] = cc
}

// Record registra o status corrente de um destinatário. Campanhas
// nunca carregadas neste processo são ignoradas: um snapshot parcial
// seria pior do que recontar do banco.
func (a *StatsAggregator) Record(campaignID, recipientID string, status model.RecipientStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cc, ok := a.campaigns[campaignID]
	if !ok {
		return
	}
	cc.statuses[recipientID] = status
}

// Snapshot devolve os contadores atuais. ok=false quando a campanha
// nunca foi carregada neste processo.
func (a *StatsAggregator) Snapshot(campaignID string) (model.CampaignStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cc, ok := a.campaigns[campaignID]
	if !ok {
		return model.CampaignStats{}, false
	}

	var stats model.CampaignStats
	stats.Total = len(cc.statuses)
	for _, s := range cc.statuses {
		switch s {
		case model.RecipientStatusPending:
			stats.Pending++
		case model.RecipientStatusSent:
			stats.Sent++
		case model.RecipientStatusDelivered:
			stats.Delivered++
		case model.RecipientStatusRead:
			stats.Read++
		case model.RecipientStatusFailed:
			stats.Failed++
		}
	}
	return stats, true
}

// Forget descarta os contadores de uma campanha encerrada.
func (a *StatsAggregator) Forget(campaignID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.campaigns, campaignID)
}
