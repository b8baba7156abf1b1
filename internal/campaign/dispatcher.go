package campaign

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/clock"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// command é um pedido cooperativo de parada vindo do Manager. O ack
// carrega a campanha já persistida com o novo status.
type command struct {
	action Action
	ack    chan model.Campaign
}

// Dispatcher conduz os destinatários de UMA campanha até o fim, no
// ritmo configurado. Um goroutine por campanha em execução; nenhum
// worker existe para campanhas paradas. Os únicos pontos de espera
// são o intervalo de ritmo e o I/O do gateway, ambos interrompíveis
// por pause/cancel.
type Dispatcher struct {
	campaign   model.Campaign
	recipients []model.CampaignRecipient
	cursor     *Cursor

	store    Store
	gateway  Gateway
	renderer Renderer
	quota    QuotaGuard
	stats    *StatsAggregator
	notifier Notifier
	clock    clock.Clock
	log      *zap.Logger

	retryBase time.Duration
	retryMax  time.Duration

	commands chan command
	onExit   func(campaignID string)
}

func (d *Dispatcher) Run(ctx context.Context) {
	metricActiveDispatchers.Inc()
	defer metricActiveDispatchers.Dec()
	defer d.onExit(d.campaign.ID)

	d.log.Info("dispatcher: iniciado",
		zap.String("campaign_id", d.campaign.ID),
		zap.Int("recipients", len(d.recipients)),
		zap.Duration("interval", SendInterval(d.campaign.Settings)),
	)

	for {
		// sinais de parada têm prioridade no topo do loop
		select {
		case cmd := <-d.commands:
			d.stop(ctx, cmd)
			return
		default:
		}

		now := d.clock.Now()
		idx, ok := d.cursor.Next(d.recipients, now)
		if !ok {
			if due, waiting := d.cursor.NextRetryDue(); waiting {
				// só restam retries ainda em backoff
				if cmd, interrupted := d.wait(ctx, due.Sub(now)); interrupted {
					if cmd != nil {
						d.stop(ctx, *cmd)
					} else {
						d.persistOnShutdown(ctx)
					}
					return
				}
				continue
			}
			d.finish(ctx, model.CampaignStatusCompleted, "")
			return
		}

		rec := &d.recipients[idx]
		if rec.Status.Dispatched() {
			// já enviado numa execução anterior: nunca reenviar
			continue
		}

		dec, err := d.quota.CanSendOne(ctx, d.campaign.UserID)
		if err != nil {
			// erro de infraestrutura na consulta de quota: devolve o
			// destinatário e tenta de novo no próximo ciclo
			d.log.Warn("dispatcher: erro ao consultar quota", zap.Error(err))
			d.cursor.Requeue(idx, rec.RetryCount, now)
			if cmd, interrupted := d.wait(ctx, SendInterval(d.campaign.Settings)); interrupted {
				if cmd != nil {
					d.stop(ctx, *cmd)
				} else {
					d.persistOnShutdown(ctx)
				}
				return
			}
			continue
		}
		if !dec.Allowed {
			// quota estourada pausa (não cancela) a campanha,
			// preservando o progresso para quando a quota renovar
			metricQuotaDenials.Inc()
			d.cursor.Requeue(idx, rec.RetryCount, now)
			d.finishPaused(ctx, dec.Deny().Error())
			return
		}

		text := d.renderer.Render(d.campaign.TemplateID, d.campaign.Message, rec.Variables)

		res, serr := d.gateway.Send(ctx, d.campaign.InstanceID, rec.Phone, text)
		now = d.clock.Now()
		switch {
		case serr == nil:
			rec.Status = model.RecipientStatusSent
			rec.SentAt = &now
			rec.Error = ""
			rec.GatewayMessageID = res.MessageID
			d.stats.Record(d.campaign.ID, rec.ID, rec.Status)
			metricSends.WithLabelValues("sent").Inc()
			d.log.Debug("dispatcher: mensagem enviada",
				zap.String("campaign_id", d.campaign.ID),
				zap.String("recipient_id", rec.ID),
				zap.String("gateway_message_id", res.MessageID),
			)
		case errors.Is(serr, ErrInstanceUnusable):
			// fatal para a campanha; o destinatário não foi
			// consumido e permanece PENDING
			d.cursor.Requeue(idx, rec.RetryCount, now)
			d.finish(ctx, model.CampaignStatusFailed, serr.Error())
			return
		default:
			d.recordFailure(rec, idx, serr, now)
		}

		if err := d.commit(ctx, *rec); err != nil {
			d.abortCycle(err)
			return
		}

		if cmd, interrupted := d.wait(ctx, SendInterval(d.campaign.Settings)); interrupted {
			if cmd != nil {
				d.stop(ctx, *cmd)
			} else {
				d.persistOnShutdown(ctx)
			}
			return
		}
	}
}

// recordFailure aplica a política de retry a uma falha de envio.
func (d *Dispatcher) recordFailure(rec *model.CampaignRecipient, idx int, serr error, now time.Time) {
	rec.RetryCount++
	rec.Error = serr.Error()

	retryable := d.campaign.Settings.RetryOnFailure &&
		!IsPermanentSendError(serr) &&
		rec.RetryCount <= d.campaign.Settings.MaxRetries

	if retryable {
		rec.Status = model.RecipientStatusPending
		d.cursor.PushRetry(idx, rec.RetryCount, now, d.retryBase, d.retryMax)
		d.stats.Record(d.campaign.ID, rec.ID, rec.Status)
		metricSends.WithLabelValues("retried").Inc()
		d.log.Warn("dispatcher: envio falhou, reenfileirado",
			zap.String("campaign_id", d.campaign.ID),
			zap.String("recipient_id", rec.ID),
			zap.Int("retry_count", rec.RetryCount),
			zap.Error(serr),
		)
		return
	}

	rec.Status = model.RecipientStatusFailed
	d.stats.Record(d.campaign.ID, rec.ID, rec.Status)
	metricSends.WithLabelValues("failed").Inc()
	d.log.Warn("dispatcher: destinatário marcado como FAILED",
		zap.String("campaign_id", d.campaign.ID),
		zap.String("recipient_id", rec.ID),
		zap.Int("retry_count", rec.RetryCount),
		zap.Error(serr),
	)
}

// commit persiste o resultado da tentativa e o cursor. Um crash entre
// o envio e o commit não causa reenvio na retomada: o status do
// destinatário é verificado antes de cada envio.
func (d *Dispatcher) commit(ctx context.Context, rec model.CampaignRecipient) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = d.store.SaveRecipient(ctx, rec); err != nil {
			continue
		}
		if err = d.store.SaveCursor(ctx, d.campaign.ID, d.cursor.Marshal()); err != nil {
			continue
		}
		d.publishProgress(ctx, rec)
		return nil
	}
	return err
}

func (d *Dispatcher) publishProgress(ctx context.Context, rec model.CampaignRecipient) {
	stats, _ := d.stats.Snapshot(d.campaign.ID)
	d.notifier.Publish(ctx, d.campaign, EventProgress, map[string]interface{}{
		"recipientId": rec.ID,
		"status":      string(rec.Status),
		"stats":       stats,
	})
}

// wait dorme de forma interrompível. Retorna (cmd, true) quando um
// pedido de parada chegou durante a espera e (nil, true) quando o
// processo está encerrando.
func (d *Dispatcher) wait(ctx context.Context, dur time.Duration) (*command, bool) {
	// comandos pendentes vêm antes de qualquer espera
	select {
	case cmd := <-d.commands:
		return &cmd, true
	default:
	}
	if dur <= 0 {
		return nil, false
	}
	select {
	case <-d.clock.After(dur):
		return nil, false
	case cmd := <-d.commands:
		return &cmd, true
	case <-ctx.Done():
		return nil, true
	}
}

// stop atende um pedido de pause/cancel: persiste cursor e status e
// só então confirma ao Manager, evitando que um envio em voo seja
// commitado depois do status já reportado.
func (d *Dispatcher) stop(ctx context.Context, cmd command) {
	c := d.campaign
	switch cmd.action {
	case ActionCancel:
		c.Status = model.CampaignStatusCancelled
	default:
		c.Status = model.CampaignStatusPaused
	}
	c.StatusReason = ""
	c.Cursor = d.cursor.Marshal()

	if err := d.store.SaveCampaignState(ctx, c); err != nil {
		d.log.Error("dispatcher: falha ao persistir parada", zap.Error(err))
	}
	d.campaign = c
	d.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
		"status": string(c.Status),
	})
	d.log.Info("dispatcher: parado",
		zap.String("campaign_id", c.ID),
		zap.String("action", string(cmd.action)),
		zap.String("status", string(c.Status)),
	)
	cmd.ack <- c
}

// finish encerra a campanha por decisão do próprio dispatcher
// (fila esgotada ou instância inutilizável).
func (d *Dispatcher) finish(ctx context.Context, status model.CampaignStatus, reason string) {
	c := d.campaign
	c.Status = status
	c.StatusReason = reason
	c.Cursor = d.cursor.Marshal()
	if status == model.CampaignStatusCompleted {
		now := d.clock.Now()
		c.CompletedAt = &now
	}
	if err := d.store.SaveCampaignState(ctx, c); err != nil {
		d.log.Error("dispatcher: falha ao persistir encerramento", zap.Error(err))
	}
	d.campaign = c
	d.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
		"status": string(status),
		"reason": reason,
	})
	d.log.Info("dispatcher: encerrado",
		zap.String("campaign_id", c.ID),
		zap.String("status", string(status)),
		zap.String("reason", reason),
	)
}

// finishPaused pausa a campanha por quota excedida, preservando o
// cursor para retomada.
func (d *Dispatcher) finishPaused(ctx context.Context, reason string) {
	c := d.campaign
	c.Status = model.CampaignStatusPaused
	c.StatusReason = reason
	c.Cursor = d.cursor.Marshal()
	if err := d.store.SaveCampaignState(ctx, c); err != nil {
		d.log.Error("dispatcher: falha ao persistir pausa por quota", zap.Error(err))
	}
	d.campaign = c
	d.notifier.Publish(ctx, c, EventStatusChanged, map[string]interface{}{
		"status": string(c.Status),
		"reason": reason,
	})
	d.log.Warn("dispatcher: pausado por quota",
		zap.String("campaign_id", c.ID),
		zap.String("reason", reason),
	)
}

// persistOnShutdown salva o cursor durante o encerramento do
// processo. O status fica RUNNING de propósito: a recuperação no boot
// retoma a campanha de onde parou.
func (d *Dispatcher) persistOnShutdown(ctx context.Context) {
	if err := d.store.SaveCursor(context.WithoutCancel(ctx), d.campaign.ID, d.cursor.Marshal()); err != nil {
		d.log.Error("dispatcher: falha ao salvar cursor no shutdown", zap.Error(err))
	}
	d.log.Info("dispatcher: suspenso pelo shutdown do processo",
		zap.String("campaign_id", d.campaign.ID),
	)
}

// abortCycle interrompe o ciclo após falha de persistência. O status
// fica como está; o lock expira por TTL e a recuperação retoma a
// campanha. Os status dos destinatários garantem que nada é reenviado.
func (d *Dispatcher) abortCycle(err error) {
	d.log.Error("dispatcher: falha de persistência, abortando ciclo",
		zap.String("campaign_id", d.campaign.ID),
		zap.Error(err),
	)
}
