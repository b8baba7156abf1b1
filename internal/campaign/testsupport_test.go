package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// autoClock avança o tempo a cada espera em vez de dormir, mantendo
// os testes do dispatcher instantâneos e determinísticos.
type autoClock struct {
	mu  sync.Mutex
	now time.Time
}

func newAutoClock() *autoClock {
	return &autoClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *autoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *autoClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	t := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- t
	return ch
}

// memStore implementa Store em memória para os testes do motor.
type memStore struct {
	mu         sync.Mutex
	campaign   model.Campaign
	recipients []model.CampaignRecipient
}

func newMemStore(c model.Campaign, recipients []model.CampaignRecipient) *memStore {
	return &memStore{campaign: c, recipients: recipients}
}

func (s *memStore) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.campaign.ID {
		return model.Campaign{}, ErrCampaignNotFound
	}
	return s.campaign, nil
}

func (s *memStore) ListRecipients(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CampaignRecipient, len(s.recipients))
	copy(out, s.recipients)
	return out, nil
}

func (s *memStore) ListCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.campaign.Status == status {
		return []model.Campaign{s.campaign}, nil
	}
	return nil, nil
}

func (s *memStore) SaveCampaignState(ctx context.Context, c model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaign = c
	return nil
}

func (s *memStore) SaveRecipient(ctx context.Context, r model.CampaignRecipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recipients {
		if s.recipients[i].ID == r.ID {
			s.recipients[i] = r
			return nil
		}
	}
	return fmt.Errorf("destinatário desconhecido: %s", r.ID)
}

func (s *memStore) SaveCursor(ctx context.Context, campaignID string, cursor []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaign.Cursor = cursor
	return nil
}

func (s *memStore) snapshot() (model.Campaign, []model.CampaignRecipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]model.CampaignRecipient, len(s.recipients))
	copy(recs, s.recipients)
	return s.campaign, recs
}

// fakeGateway registra os envios e delega o resultado a um script.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []string
	texts  []string
	fail   func(call int, phone string) error
	onSend func(call int)
}

func (g *fakeGateway) Send(ctx context.Context, instanceID, phone, text string) (SendResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, phone)
	g.texts = append(g.texts, text)
	n := len(g.calls)
	g.mu.Unlock()

	if g.onSend != nil {
		g.onSend(n)
	}
	if g.fail != nil {
		if err := g.fail(n, phone); err != nil {
			return SendResult{}, err
		}
	}
	return SendResult{MessageID: fmt.Sprintf("wamid-%d", n)}, nil
}

func (g *fakeGateway) sentPhones() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *fakeGateway) sentTexts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.texts))
	copy(out, g.texts)
	return out
}

// quotaStub permite N envios e nega o resto. allowance < 0 libera
// tudo.
type quotaStub struct {
	mu          sync.Mutex
	startDenied bool
	allowance   int
	used        int
}

func allowAllQuota() *quotaStub {
	return &quotaStub{allowance: -1}
}

func (q *quotaStub) CanStart(ctx context.Context, userID string) (Decision, error) {
	if q.startDenied {
		return Decision{Allowed: false, Scope: "campaigns", Current: 10, Limit: 10}, nil
	}
	return Decision{Allowed: true, Scope: "campaigns"}, nil
}

func (q *quotaStub) CanSendOne(ctx context.Context, userID string) (Decision, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.allowance >= 0 && q.used >= q.allowance {
		return Decision{Allowed: false, Scope: "messages", Current: q.used, Limit: q.allowance}, nil
	}
	q.used++
	return Decision{Allowed: true, Scope: "messages", Current: q.used, Limit: q.allowance}, nil
}

// plainRenderer devolve o conteúdo sem substituições.
type plainRenderer struct{}

func (plainRenderer) ExtractVariables(string) []string { return nil }
func (plainRenderer) Render(_, content string, _ map[string]string) string { return content }

// freeLocker sempre adquire; busyLocker nunca.
type freeLocker struct{}

func (freeLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return nil, false, nil
}

func makeRecipients(campaignID string, n int) []model.CampaignRecipient {
	out := make([]model.CampaignRecipient, n)
	for i := range out {
		out[i] = model.CampaignRecipient{
			ID:         fmt.Sprintf("r%d", i),
			CampaignID: campaignID,
			Position:   i,
			Phone:      fmt.Sprintf("+55119999900%02d", i),
			Status:     model.RecipientStatusPending,
		}
	}
	return out
}

func makeCampaign(id string, settings model.CampaignSettings) model.Campaign {
	return model.Campaign{
		ID:         id,
		UserID:     "user-1",
		InstanceID: "inst-1",
		Name:       "promo",
		Message:    "olá {{nome}}",
		Status:     model.CampaignStatusRunning,
		Settings:   settings,
	}
}

func fastSettings() model.CampaignSettings {
	return model.CampaignSettings{
		DelayBetweenMessagesMs: 10,
		MaxMessagesPerMinute:   0,
		RetryOnFailure:         true,
		MaxRetries:             1,
	}
}

func newTestDispatcher(store *memStore, gw Gateway, quota QuotaGuard, clk *autoClock) (*Dispatcher, *StatsAggregator) {
	campaign, recipients := store.snapshot()
	stats := NewStatsAggregator()
	stats.Prime(campaign.ID, recipients)

	cursor, err := LoadCursor(campaign.Cursor)
	if err != nil {
		cursor = &Cursor{}
	}

	return &Dispatcher{
		campaign:   campaign,
		recipients: recipients,
		cursor:     cursor,
		store:      store,
		gateway:    gw,
		renderer:   plainRenderer{},
		quota:      quota,
		stats:      stats,
		notifier:   NopNotifier{},
		clock:      clk,
		log:        zap.NewNop(),
		retryBase:  5 * time.Second,
		retryMax:   time.Minute,
		commands:   make(chan command, 1),
		onExit:     func(string) {},
	}, stats
}
