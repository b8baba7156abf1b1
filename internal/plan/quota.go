package plan

import (
	"context"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
)

// Guard aplica os limites do plano do usuário: total de campanhas
// iniciadas e mensagens por dia. Limites com valor -1 são ilimitados.
type Guard struct {
	campaigns storage.CampaignRepository
	counter   DailyCounter
	cfg       config.QuotaConfig
	log       *zap.Logger
}

func NewGuard(campaigns storage.CampaignRepository, counter DailyCounter, cfg config.QuotaConfig, log *zap.Logger) *Guard {
	return &Guard{
		campaigns: campaigns,
		counter:   counter,
		cfg:       cfg,
		log:       log.Named("quota"),
	}
}

func (g *Guard) CanStart(ctx context.Context, userID string) (campaign.Decision, error) {
	if g.cfg.MaxCampaigns == campaign.Unlimited {
		return campaign.Decision{Allowed: true, Scope: "campaigns", Limit: campaign.Unlimited}, nil
	}

	current, err := g.campaigns.CountStartedByUser(ctx, userID)
	if err != nil {
		return campaign.Decision{}, err
	}

	dec := campaign.Decision{
		Allowed: current < g.cfg.MaxCampaigns,
		Scope:   "campaigns",
		Current: current,
		Limit:   g.cfg.MaxCampaigns,
	}
	if !dec.Allowed {
		g.log.Info("limite de campanhas atingido",
			zap.String("user_id", userID),
			zap.Int("current", current),
			zap.Int("limit", g.cfg.MaxCampaigns),
		)
	}
	return dec, nil
}

// CanSendOne reserva uma unidade do contador diário. Quando a reserva
// estoura o limite ela é devolvida, de modo que uma negação não
// consome quota.
func (g *Guard) CanSendOne(ctx context.Context, userID string) (campaign.Decision, error) {
	n, err := g.counter.Increment(ctx, userID)
	if err != nil {
		return campaign.Decision{}, err
	}

	if g.cfg.MaxDailyMessages != campaign.Unlimited && n > g.cfg.MaxDailyMessages {
		if derr := g.counter.Decrement(ctx, userID); derr != nil {
			g.log.Warn("falha ao devolver reserva de quota", zap.Error(derr))
		}
		return campaign.Decision{
			Allowed: false,
			Scope:   "messages",
			Current: n - 1,
			Limit:   g.cfg.MaxDailyMessages,
		}, nil
	}

	return campaign.Decision{
		Allowed: true,
		Scope:   "messages",
		Current: n,
		Limit:   g.cfg.MaxDailyMessages,
	}, nil
}
