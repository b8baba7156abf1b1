package campaign

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// retryEntry é um destinatário que falhou e aguarda nova tentativa.
type retryEntry struct {
	Index    int       `json:"index"`
	Attempts int       `json:"attempts"`
	DueAt    time.Time `json:"dueAt"`
}

// Cursor é o marcador durável de progresso do disparo: um offset na
// sequência de destinatários mais a fila de retries ordenada por
// vencimento. É serializado em JSON e persistido junto com cada
// commit de destinatário, de modo que pause/resume e restarts
// retomam do último ponto confirmado. A idempotência de reenvio não
// depende só dele: o dispatcher confere o status do destinatário
// antes de enviar.
type Cursor struct {
	Offset int          `json:"offset"`
	Retry  []retryEntry `json:"retry,omitempty"`
}

// LoadCursor reconstrói um cursor persistido. Bytes vazios produzem
// um cursor zerado (campanha nunca iniciada).
func LoadCursor(raw []byte) (*Cursor, error) {
	c := &Cursor{}
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("cursor: decodificar: %w", err)
	}
	return c, nil
}

// Marshal serializa o cursor para persistência.
func (c *Cursor) Marshal() []byte {
	data, _ := json.Marshal(c)
	return data
}

// Next seleciona o próximo destinatário a disparar: retries vencidos
// têm prioridade (o que falhou há mais tempo primeiro), depois a
// sequência principal em ordem de posição. Destinatários que já
// saíram de PENDING são pulados. Retorna ok=false quando não há nada
// pronto agora — use NextRetryDue para saber se ainda há retries
// aguardando backoff.
func (c *Cursor) Next(recipients []model.CampaignRecipient, now time.Time) (int, bool) {
	if len(c.Retry) > 0 && !c.Retry[0].DueAt.After(now) {
		idx := c.Retry[0].Index
		c.Retry = c.Retry[1:]
		if idx >= 0 && idx < len(recipients) && recipients[idx].Status == model.RecipientStatusPending {
			return idx, true
		}
		// entrada órfã (status mudou por fora): segue adiante
		return c.Next(recipients, now)
	}

	for i := c.Offset; i < len(recipients); i++ {
		if recipients[i].Status == model.RecipientStatusPending {
			c.Offset = i + 1
			return i, true
		}
		c.Offset = i + 1
	}
	return 0, false
}

// NextRetryDue retorna o vencimento do retry mais próximo.
func (c *Cursor) NextRetryDue() (time.Time, bool) {
	if len(c.Retry) == 0 {
		return time.Time{}, false
	}
	return c.Retry[0].DueAt, true
}

// Exhausted informa se não resta nada a disparar: sequência
// percorrida e fila de retry vazia.
func (c *Cursor) Exhausted(recipients []model.CampaignRecipient) bool {
	if len(c.Retry) > 0 {
		return false
	}
	for i := c.Offset; i < len(recipients); i++ {
		if recipients[i].Status == model.RecipientStatusPending {
			return false
		}
	}
	return true
}

// Requeue devolve à frente da fila um destinatário que foi
// selecionado mas não chegou a ser disparado (quota negada, instância
// indisponível). Sem backoff: ele é o primeiro candidato na retomada.
func (c *Cursor) Requeue(index, attempts int, now time.Time) {
	c.Retry = append([]retryEntry{{Index: index, Attempts: attempts, DueAt: now}}, c.Retry...)
}

// PushRetry reenfileira um destinatário falho com backoff exponencial
// (base × 2^tentativas, limitado a max). A fila permanece ordenada
// por vencimento.
func (c *Cursor) PushRetry(index, attempts int, now time.Time, base, max time.Duration) {
	delay := base
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	c.Retry = append(c.Retry, retryEntry{
		Index:    index,
		Attempts: attempts,
		DueAt:    now.Add(delay),
	})
	sort.SliceStable(c.Retry, func(i, j int) bool {
		return c.Retry[i].DueAt.Before(c.Retry[j].DueAt)
	})
}
