package ratelimiter

import (
	"context"
	"time"
)

type Result struct {
	Allowed    bool
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limiter conta requisições por chave dentro de uma janela fixa.
// Usado pelo middleware da API; o ritmo de envio das campanhas é
// controlado pelo pacing do dispatcher, não por este limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
