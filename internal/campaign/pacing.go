package campaign

import (
	"time"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// SendInterval calcula o intervalo efetivo entre envios de uma
// campanha. Tanto o delay fixo quanto o teto de mensagens por minuto
// são honrados: vale o mais restritivo. Função pura, sem estado
// compartilhado entre campanhas — cada campanha se ritma sozinha.
func SendInterval(s model.CampaignSettings) time.Duration {
	interval := time.Duration(s.DelayBetweenMessagesMs) * time.Millisecond
	if s.MaxMessagesPerMinute > 0 {
		perMessage := time.Minute / time.Duration(s.MaxMessagesPerMinute)
		if perMessage > interval {
			interval = perMessage
		}
	}
	if interval < 0 {
		interval = 0
	}
	return interval
}
