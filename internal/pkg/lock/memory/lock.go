package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	owner     string
	expiresAt time.Time
}

// MemoryLocker implementa lock.Locker em memória, para execução
// single-process (driver sqlite sem Redis).
type MemoryLocker struct {
	mu    sync.Mutex
	items map[string]entry
}

func NewLocker() *MemoryLocker {
	return &MemoryLocker{items: make(map[string]entry)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, exists := l.items[key]; exists && now.Before(cur.expiresAt) {
		return nil, false, nil
	}

	owner := uuid.New().String()
	l.items[key] = entry{owner: owner, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, exists := l.items[key]; exists && cur.owner == owner {
			delete(l.items, key)
		}
		return nil
	}
	return release, true, nil
}
