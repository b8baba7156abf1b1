package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/clock"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
)

// Scheduler dispara campanhas SCHEDULED cujo horário venceu. O start
// passa pelo mesmo caminho da ação manual, então quota e lock valem
// igualmente para campanhas agendadas.
type Scheduler struct {
	cron      *cron.Cron
	campaigns storage.CampaignRepository
	manager   *campaign.Manager
	clock     clock.Clock
	log       *zap.Logger
	spec      string
}

func New(campaigns storage.CampaignRepository, manager *campaign.Manager, clk clock.Clock, cfg config.SchedulerConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		campaigns: campaigns,
		manager:   manager,
		clock:     clk,
		log:       log.Named("scheduler"),
		spec:      cfg.Spec,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler: iniciado", zap.String("spec", s.spec))
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler: encerrado")
}

func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.campaigns.ListDueScheduled(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("scheduler: falha ao listar campanhas vencidas", zap.Error(err))
		return
	}

	for _, c := range due {
		if _, err := s.manager.Apply(ctx, c.ID, campaign.ActionStart); err != nil {
			if campaign.IsQuotaExceeded(err) {
				s.log.Warn("scheduler: start adiado por quota",
					zap.String("campaign_id", c.ID),
					zap.Error(err),
				)
				continue
			}
			s.log.Error("scheduler: falha ao iniciar campanha agendada",
				zap.String("campaign_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		s.log.Info("scheduler: campanha agendada iniciada", zap.String("campaign_id", c.ID))
	}
}
