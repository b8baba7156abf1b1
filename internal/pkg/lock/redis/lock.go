package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript só remove a chave se o valor ainda for o nosso,
// evitando liberar um lock que expirou e foi readquirido por outro.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker implementa lock.Locker com SET NX + TTL.
type RedisLocker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	value := uuid.New().String()

	acquired, err := l.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock acquire: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		_, err := releaseScript.Run(ctx, l.client, []string{key}, value).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("lock release: %w", err)
		}
		return nil
	}
	return release, true, nil
}
