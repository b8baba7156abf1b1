package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsWithinWindow(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-i-1, res.Remaining)
	}

	res, err := l.Allow(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	_, err := l.Allow(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	res, err := l.Allow(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = l.Allow(ctx, "user-2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiterWindowResets(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	_, err := l.Allow(ctx, "user-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	res, err := l.Allow(ctx, "user-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	time.Sleep(20 * time.Millisecond)

	res, err = l.Allow(ctx, "user-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "janela vencida reinicia a contagem")
}
