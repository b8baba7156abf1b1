package plan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/clock"
)

// DailyCounter reserva unidades do limite diário de mensagens de um
// usuário. O contador zera à meia-noite UTC.
type DailyCounter interface {
	// Increment reserva uma unidade e retorna o total do dia.
	Increment(ctx context.Context, userID string) (int, error)
	// Decrement devolve uma unidade reservada mas não consumida.
	Decrement(ctx context.Context, userID string) error
}

func dayKey(userID string, now time.Time) string {
	return fmt.Sprintf("quota:messages:%s:%s", userID, now.UTC().Format("2006-01-02"))
}

// RedisCounter guarda os contadores diários no Redis, compartilhados
// entre réplicas. A chave expira no fim do dia UTC.
type RedisCounter struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedisCounter(client *redis.Client, clk clock.Clock) *RedisCounter {
	return &RedisCounter{client: client, clock: clk}
}

func (c *RedisCounter) Increment(ctx context.Context, userID string) (int, error) {
	now := c.clock.Now()
	key := dayKey(userID, now)

	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("quota: incrementar contador: %w", err)
	}
	if n == 1 {
		midnight := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		c.client.ExpireAt(ctx, key, midnight)
	}
	return int(n), nil
}

func (c *RedisCounter) Decrement(ctx context.Context, userID string) error {
	key := dayKey(userID, c.clock.Now())
	return c.client.Decr(ctx, key).Err()
}

// MemoryCounter é a variante single-process. A virada de dia descarta
// os contadores do dia anterior.
type MemoryCounter struct {
	clock clock.Clock

	mu     sync.Mutex
	day    string
	counts map[string]int
}

func NewMemoryCounter(clk clock.Clock) *MemoryCounter {
	return &MemoryCounter{clock: clk, counts: make(map[string]int)}
}

func (c *MemoryCounter) Increment(ctx context.Context, userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollover()
	c.counts[userID]++
	return c.counts[userID], nil
}

func (c *MemoryCounter) Decrement(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollover()
	if c.counts[userID] > 0 {
		c.counts[userID]--
	}
	return nil
}

func (c *MemoryCounter) rollover() {
	day := c.clock.Now().UTC().Format("2006-01-02")
	if day != c.day {
		c.day = day
		c.counts = make(map[string]int)
	}
}
