package queue

import (
	"context"
	"time"
)

// Event é uma notificação de campanha destinada aos clientes
// conectados (entregue via webhook pelo pool de notificação).
type Event struct {
	ID         string                 `json:"id"`
	CampaignID string                 `json:"campaignId"`
	InstanceID string                 `json:"instanceId"`
	UserID     string                 `json:"userId"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type Queue interface {
	Enqueue(ctx context.Context, event Event) error
	Dequeue(ctx context.Context, timeout time.Duration) (*Event, error)
	Size(ctx context.Context) (int64, error)
	Close() error
}
