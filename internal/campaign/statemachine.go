package campaign

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/clock"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/lock"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

const (
	lockKeyPrefix = "campaign:dispatcher:"
	stopTimeout   = 30 * time.Second
)

// Config agrupa os parâmetros operacionais do motor.
type Config struct {
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	LockTTL        time.Duration
}

type runningDispatcher struct {
	dispatcher *Dispatcher
	release    func(context.Context) error
}

// Manager é a máquina de estados das campanhas: valida e aplica as
// transições de ciclo de vida e administra um dispatcher por campanha
// em execução. O lock distribuído garante no máximo um dispatcher
// vivo por campanha mesmo com múltiplas réplicas do processo.
type Manager struct {
	store    Store
	quota    QuotaGuard
	gateway  Gateway
	renderer Renderer
	notifier Notifier
	stats    *StatsAggregator
	locker   lock.Locker
	clock    clock.Clock
	log      *zap.Logger
	cfg      Config

	mu          sync.Mutex
	dispatchers map[string]*runningDispatcher

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewManager(store Store, quota QuotaGuard, gateway Gateway, renderer Renderer, notifier Notifier, stats *StatsAggregator, locker lock.Locker, clk clock.Clock, log *zap.Logger, cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:       store,
		quota:       quota,
		gateway:     gateway,
		renderer:    renderer,
		notifier:    notifier,
		stats:       stats,
		locker:      locker,
		clock:       clk,
		log:         log.Named("campaign"),
		cfg:         cfg,
		dispatchers: make(map[string]*runningDispatcher),
		rootCtx:     ctx,
		rootCancel:  cancel,
	}
}

// Apply executa uma ação de ciclo de vida sobre a campanha, validando
// a transição contra o status atual. Retorna a campanha já no novo
// status. Ações redundantes (start/resume sobre RUNNING) são no-ops
// bem-sucedidos.
func (m *Manager) Apply(ctx context.Context, id string, action Action) (model.Campaign, error) {
	c, err := m.store.GetCampaign(ctx, id)
	if err != nil {
		return model.Campaign{}, err
	}

	switch action {
	case ActionStart:
		switch c.Status {
		case model.CampaignStatusDraft, model.CampaignStatusScheduled:
			return m.launch(ctx, c)
		case model.CampaignStatusRunning:
			return c, nil
		}
	case ActionResume:
		switch c.Status {
		case model.CampaignStatusPaused:
			return m.launch(ctx, c)
		case model.CampaignStatusRunning:
			return c, nil
		}
	case ActionPause:
		if c.Status == model.CampaignStatusRunning {
			return m.signalStop(ctx, c, ActionPause)
		}
	case ActionCancel:
		switch c.Status {
		case model.CampaignStatusRunning:
			return m.signalStop(ctx, c, ActionCancel)
		case model.CampaignStatusDraft, model.CampaignStatusScheduled, model.CampaignStatusPaused:
			c.Status = model.CampaignStatusCancelled
			c.StatusReason = ""
			if err := m.store.SaveCampaignState(ctx, c); err != nil {
				return model.Campaign{}, err
			}
			m.stats.Forget(c.ID)
			m.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
				"status": string(c.Status),
			})
			return c, nil
		}
	}

	return model.Campaign{}, &InvalidTransitionError{Status: c.Status, Action: action}
}

// Schedule agenda uma campanha DRAFT para início automático.
func (m *Manager) Schedule(ctx context.Context, id string, at time.Time) (model.Campaign, error) {
	c, err := m.store.GetCampaign(ctx, id)
	if err != nil {
		return model.Campaign{}, err
	}
	if c.Status != model.CampaignStatusDraft {
		return model.Campaign{}, &InvalidTransitionError{Status: c.Status, Action: "schedule"}
	}
	c.Status = model.CampaignStatusScheduled
	c.ScheduledAt = &at
	if err := m.store.SaveCampaignState(ctx, c); err != nil {
		return model.Campaign{}, err
	}
	m.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
		"status":      string(c.Status),
		"scheduledAt": at,
	})
	return c, nil
}

// Recover relança os dispatchers de campanhas deixadas em RUNNING por
// um encerramento abrupto do processo. Chamado no boot.
func (m *Manager) Recover(ctx context.Context) error {
	running, err := m.store.ListCampaignsByStatus(ctx, model.CampaignStatusRunning)
	if err != nil {
		return err
	}
	for _, c := range running {
		if _, err := m.launch(ctx, c); err != nil {
			m.log.Error("recuperação: falha ao relançar campanha",
				zap.String("campaign_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		m.log.Info("recuperação: campanha retomada", zap.String("campaign_id", c.ID))
	}
	return nil
}

// Shutdown interrompe todos os dispatchers e aguarda a persistência
// final dos cursores.
func (m *Manager) Shutdown() {
	m.rootCancel()
	m.wg.Wait()
}

// launch coloca a campanha em RUNNING e sobe o dispatcher dela.
func (m *Manager) launch(ctx context.Context, c model.Campaign) (model.Campaign, error) {
	// quota de campanhas vale só para o primeiro start
	if c.StartedAt == nil {
		dec, err := m.quota.CanStart(ctx, c.UserID)
		if err != nil {
			return model.Campaign{}, err
		}
		if !dec.Allowed {
			return model.Campaign{}, dec.Deny()
		}
	}

	m.mu.Lock()
	if _, exists := m.dispatchers[c.ID]; exists {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	release, ok, err := m.locker.Acquire(ctx, lockKeyPrefix+c.ID, m.cfg.LockTTL)
	if err != nil {
		return model.Campaign{}, err
	}
	if !ok {
		// outra réplica já conduz esta campanha
		m.log.Info("lock de dispatcher ocupado, ignorando",
			zap.String("campaign_id", c.ID),
		)
		return c, nil
	}

	recipients, err := m.store.ListRecipients(ctx, c.ID)
	if err != nil {
		_ = release(ctx)
		return model.Campaign{}, err
	}

	cursor, err := LoadCursor(c.Cursor)
	if err != nil {
		m.log.Warn("cursor corrompido, reiniciando do zero",
			zap.String("campaign_id", c.ID),
			zap.Error(err),
		)
		cursor = &Cursor{}
	}

	c.Status = model.CampaignStatusRunning
	c.StatusReason = ""
	if c.StartedAt == nil {
		now := m.clock.Now()
		c.StartedAt = &now
	}
	if err := m.store.SaveCampaignState(ctx, c); err != nil {
		_ = release(ctx)
		return model.Campaign{}, err
	}

	m.stats.Prime(c.ID, recipients)

	d := &Dispatcher{
		campaign:   c,
		recipients: recipients,
		cursor:     cursor,
		store:      m.store,
		gateway:    m.gateway,
		renderer:   m.renderer,
		quota:      m.quota,
		stats:      m.stats,
		notifier:   m.notifier,
		clock:      m.clock,
		log:        m.log,
		retryBase:  m.cfg.RetryBaseDelay,
		retryMax:   m.cfg.RetryMaxDelay,
		commands:   make(chan command, 1),
		onExit:     m.forget,
	}

	m.mu.Lock()
	m.dispatchers[c.ID] = &runningDispatcher{dispatcher: d, release: release}
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		d.Run(m.rootCtx)
	}()

	m.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
		"status": string(c.Status),
	})
	return c, nil
}

// signalStop pede pause/cancel ao dispatcher e aguarda a confirmação
// com a campanha já persistida no novo status.
func (m *Manager) signalStop(ctx context.Context, c model.Campaign, action Action) (model.Campaign, error) {
	m.mu.Lock()
	rd := m.dispatchers[c.ID]
	m.mu.Unlock()

	if rd == nil {
		// RUNNING órfão: nenhum dispatcher nesta réplica (restart sem
		// recuperação ou lock em outra réplica já morta). Persiste o
		// novo status diretamente.
		switch action {
		case ActionCancel:
			c.Status = model.CampaignStatusCancelled
		default:
			c.Status = model.CampaignStatusPaused
		}
		c.StatusReason = ""
		if err := m.store.SaveCampaignState(ctx, c); err != nil {
			return model.Campaign{}, err
		}
		m.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
			"status": string(c.Status),
		})
		return c, nil
	}

	cmd := command{action: action, ack: make(chan model.Campaign, 1)}
	select {
	case rd.dispatcher.commands <- cmd:
	case <-ctx.Done():
		return model.Campaign{}, ctx.Err()
	}

	// timeout em relógio de parede: protege contra dispatcher travado
	// em I/O, não faz parte do pacing testável
	select {
	case updated := <-cmd.ack:
		return updated, nil
	case <-time.After(stopTimeout):
		return model.Campaign{}, context.DeadlineExceeded
	case <-ctx.Done():
		return model.Campaign{}, ctx.Err()
	}
}

// forget remove o dispatcher do registro e solta o lock. Invocado
// pelo próprio dispatcher ao encerrar.
func (m *Manager) forget(campaignID string) {
	m.mu.Lock()
	rd := m.dispatchers[campaignID]
	delete(m.dispatchers, campaignID)
	m.mu.Unlock()

	if rd != nil && rd.release != nil {
		if err := rd.release(context.Background()); err != nil {
			m.log.Warn("falha ao liberar lock de dispatcher",
				zap.String("campaign_id", campaignID),
				zap.Error(err),
			)
		}
	}
}
