package campaign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

func pushCommand(d *Dispatcher, action Action) command {
	cmd := command{action: action, ack: make(chan model.Campaign, 1)}
	d.commands <- cmd
	return cmd
}

func TestDispatcherRunsToCompletion(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 3))
	gw := &fakeGateway{}
	d, stats := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	require.NotNil(t, c.CompletedAt)
	assert.Len(t, gw.sentPhones(), 3)
	for _, r := range recs {
		assert.Equal(t, model.RecipientStatusSent, r.Status, "destinatário %s", r.ID)
		assert.NotEmpty(t, r.GatewayMessageID)
		require.NotNil(t, r.SentAt)
	}

	snap, ok := stats.Snapshot("c1")
	require.True(t, ok)
	assert.Equal(t, model.CampaignStats{Total: 3, Sent: 3}, snap)
}

func TestDispatcherRetriesTransientFailureUntilExhausted(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 3))
	flaky := store.recipients[1].Phone
	gw := &fakeGateway{
		fail: func(call int, phone string) error {
			if phone == flaky {
				return &TransientSendError{Err: errors.New("timeout do gateway")}
			}
			return nil
		},
	}
	d, stats := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	// 3 envios da sequência + 1 retry do flaky (maxRetries=1)
	assert.Len(t, gw.sentPhones(), 4)

	assert.Equal(t, model.RecipientStatusSent, recs[0].Status)
	assert.Equal(t, model.RecipientStatusFailed, recs[1].Status)
	assert.Equal(t, 2, recs[1].RetryCount)
	assert.NotEmpty(t, recs[1].Error)
	assert.Equal(t, model.RecipientStatusSent, recs[2].Status)

	snap, ok := stats.Snapshot("c1")
	require.True(t, ok)
	assert.Equal(t, model.CampaignStats{Total: 3, Sent: 2, Failed: 1}, snap)
}

func TestDispatcherPermanentFailureSkipsRetry(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 3))
	bad := store.recipients[1].Phone
	gw := &fakeGateway{
		fail: func(call int, phone string) error {
			if phone == bad {
				return &PermanentSendError{Err: errors.New("número inexistente")}
			}
			return nil
		},
	}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	assert.Len(t, gw.sentPhones(), 3, "erro permanente não gera retry")
	assert.Equal(t, model.RecipientStatusFailed, recs[1].Status)
	assert.Equal(t, 1, recs[1].RetryCount)
}

func TestDispatcherPauseStopsAndResumeSkipsSent(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 3))
	var d *Dispatcher
	gw := &fakeGateway{}
	gw.onSend = func(call int) {
		if call == 1 {
			pushCommand(d, ActionPause)
		}
	}
	d, _ = newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusPaused, c.Status)
	assert.Len(t, gw.sentPhones(), 1)
	assert.Equal(t, model.RecipientStatusSent, recs[0].Status)
	assert.Equal(t, model.RecipientStatusPending, recs[1].Status)

	cursor, err := LoadCursor(c.Cursor)
	require.NoError(t, err)
	assert.Equal(t, 1, cursor.Offset)

	// retomada: novo dispatcher a partir do estado persistido
	gw2 := &fakeGateway{}
	d2, _ := newTestDispatcher(store, gw2, allowAllQuota(), newAutoClock())
	d2.Run(context.Background())

	c, recs = store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	assert.Equal(t, []string{recs[1].Phone, recs[2].Phone}, gw2.sentPhones(),
		"retomada nunca reenvia o que já foi despachado")
}

func TestDispatcherCancelMidway(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 10))
	var d *Dispatcher
	gw := &fakeGateway{}
	gw.onSend = func(call int) {
		if call == 5 {
			pushCommand(d, ActionCancel)
		}
	}
	d, _ = newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusCancelled, c.Status)
	assert.Len(t, gw.sentPhones(), 5)
	for i, r := range recs {
		if i < 5 {
			assert.Equal(t, model.RecipientStatusSent, r.Status)
		} else {
			assert.Equal(t, model.RecipientStatusPending, r.Status)
		}
	}
}

func TestDispatcherQuotaDenialPausesWithReason(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 5))
	gw := &fakeGateway{}
	quota := &quotaStub{allowance: 3}
	d, _ := newTestDispatcher(store, gw, quota, newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusPaused, c.Status)
	assert.Contains(t, c.StatusReason, "quota excedida")
	assert.Len(t, gw.sentPhones(), 3)
	assert.Equal(t, model.RecipientStatusPending, recs[3].Status,
		"destinatário negado pela quota não é consumido")
	assert.Equal(t, model.RecipientStatusPending, recs[4].Status)

	// quota renovada: a retomada dispara exatamente os que faltam
	gw2 := &fakeGateway{}
	d2, _ := newTestDispatcher(store, gw2, allowAllQuota(), newAutoClock())
	d2.Run(context.Background())

	c, _ = store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	assert.Equal(t, "", c.StatusReason)
	assert.Len(t, gw2.sentPhones(), 2)

	seen := map[string]int{}
	for _, p := range append(gw.sentPhones(), gw2.sentPhones()...) {
		seen[p]++
	}
	for phone, n := range seen {
		assert.Equal(t, 1, n, "telefone %s enviado mais de uma vez", phone)
	}
}

func TestDispatcherInstanceUnusableFailsCampaign(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 3))
	gw := &fakeGateway{
		fail: func(call int, phone string) error {
			if call == 2 {
				return fmt.Errorf("%w: sessão desconectada", ErrInstanceUnusable)
			}
			return nil
		},
	}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusFailed, c.Status)
	assert.NotEmpty(t, c.StatusReason)
	assert.Equal(t, model.RecipientStatusSent, recs[0].Status)
	assert.Equal(t, model.RecipientStatusPending, recs[1].Status,
		"instância caída não consome o destinatário")
	assert.Equal(t, model.RecipientStatusPending, recs[2].Status)
}

func TestDispatcherSkipsAlreadyDispatched(t *testing.T) {
	recipients := makeRecipients("c1", 3)
	recipients[0].Status = model.RecipientStatusSent
	store := newMemStore(makeCampaign("c1", fastSettings()), recipients)
	gw := &fakeGateway{}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, recs := store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	assert.Equal(t, []string{recs[1].Phone, recs[2].Phone}, gw.sentPhones())
}

func TestDispatcherEmptyQueueCompletesImmediately(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), nil)
	gw := &fakeGateway{}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())

	d.Run(context.Background())

	c, _ := store.snapshot()
	assert.Equal(t, model.CampaignStatusCompleted, c.Status)
	assert.Empty(t, gw.sentPhones())
}

// catalogRenderer resolve o corpo por id de template, como o serviço
// de templates faz quando há catálogo configurado.
type catalogRenderer struct {
	bodies map[string]string
}

func (r catalogRenderer) ExtractVariables(string) []string { return nil }

func (r catalogRenderer) Render(templateID, content string, _ map[string]string) string {
	if body, ok := r.bodies[templateID]; ok {
		return body
	}
	return content
}

func TestDispatcherRendersWithTemplateID(t *testing.T) {
	campaign := makeCampaign("c1", fastSettings())
	campaign.TemplateID = "tpl-boasvindas"
	store := newMemStore(campaign, makeRecipients("c1", 2))
	gw := &fakeGateway{}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())
	d.renderer = catalogRenderer{bodies: map[string]string{"tpl-boasvindas": "corpo do template"}}

	d.Run(context.Background())

	assert.Equal(t, []string{"corpo do template", "corpo do template"}, gw.sentTexts())
}

func TestDispatcherRendersRawMessageWithoutTemplate(t *testing.T) {
	store := newMemStore(makeCampaign("c1", fastSettings()), makeRecipients("c1", 1))
	gw := &fakeGateway{}
	d, _ := newTestDispatcher(store, gw, allowAllQuota(), newAutoClock())
	d.renderer = catalogRenderer{bodies: map[string]string{"tpl-boasvindas": "corpo do template"}}

	d.Run(context.Background())

	assert.Equal(t, []string{"olá {{nome}}"}, gw.sentTexts())
}
