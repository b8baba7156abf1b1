package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
)

// Pool consome a fila de eventos e entrega cada um no webhook da
// instância dona da campanha. Instâncias sem webhook configurado
// simplesmente descartam o evento.
type Pool struct {
	queue        queue.Queue
	instanceRepo storage.InstanceRepository
	delivery     *Delivery
	log          *zap.Logger

	numWorkers int
	taskChan   chan *queue.Event
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewPool(q queue.Queue, instanceRepo storage.InstanceRepository, delivery *Delivery, log *zap.Logger, numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	return &Pool{
		queue:        q,
		instanceRepo: instanceRepo,
		delivery:     delivery,
		log:          log.Named("notify"),
		numWorkers:   numWorkers,
		taskChan:     make(chan *queue.Event, numWorkers*2),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.log.Info("pool de notificação: iniciando", zap.Int("workers", p.numWorkers))

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}

	p.wg.Add(1)
	go p.runFeeder()
}

func (p *Pool) Stop() {
	p.log.Info("pool de notificação: encerrando")
	p.cancel()
	p.wg.Wait()
	close(p.taskChan)
	p.log.Info("pool de notificação: encerrado")
}

// runFeeder drena a fila durável para o canal interno dos workers.
func (p *Pool) runFeeder() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		event, err := p.queue.Dequeue(p.ctx, 1*time.Second)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.log.Error("pool de notificação: erro ao desenfileirar", zap.Error(err))
			continue
		}
		if event == nil {
			continue
		}

		select {
		case p.taskChan <- event:
		case <-p.ctx.Done():
			return
		case <-time.After(5 * time.Second):
			p.log.Warn("pool de notificação: canal cheio, descartando evento",
				zap.String("event_id", event.ID),
			)
		}
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case event := <-p.taskChan:
			if event == nil {
				return
			}
			p.processEvent(p.ctx, id, event)
		}
	}
}

func (p *Pool) processEvent(ctx context.Context, workerID int, event *queue.Event) {
	inst, err := p.instanceRepo.GetByID(ctx, event.InstanceID)
	if err != nil {
		p.log.Error("pool de notificação: instância não encontrada",
			zap.Int("worker_id", workerID),
			zap.String("event_id", event.ID),
			zap.String("instance_id", event.InstanceID),
			zap.Error(err),
		)
		return
	}

	if inst.WebhookURL == "" {
		p.log.Debug("pool de notificação: instância sem webhook",
			zap.String("instance_id", event.InstanceID),
		)
		return
	}

	payload := map[string]interface{}{
		"id":         event.ID,
		"campaignId": event.CampaignID,
		"instanceId": event.InstanceID,
		"type":       event.Type,
		"payload":    event.Payload,
		"createdAt":  event.CreatedAt,
	}

	if err := p.delivery.Deliver(ctx, inst.WebhookURL, inst.WebhookSecret, payload); err != nil {
		p.log.Error("pool de notificação: falha na entrega",
			zap.Int("worker_id", workerID),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}

	p.log.Debug("pool de notificação: evento entregue",
		zap.Int("worker_id", workerID),
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
	)
}
