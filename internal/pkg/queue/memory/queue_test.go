package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	q := NewQueue(10)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, queue.Event{ID: "e1", Type: "campaign.status"}))
	require.NoError(t, q.Enqueue(ctx, queue.Event{ID: "e2", Type: "campaign.progress"}))

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	ev, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "e1", ev.ID, "FIFO")

	ev, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "e2", ev.ID)
}

func TestQueueDequeueTimeoutReturnsNil(t *testing.T) {
	q := NewQueue(10)
	defer q.Close()

	ev, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestQueueFullRejectsWithoutBlocking(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, queue.Event{ID: "e1"}))
	err := q.Enqueue(ctx, queue.Event{ID: "e2"})
	assert.Error(t, err, "fila cheia não bloqueia o produtor")
}

func TestQueueClosedRejectsEnqueue(t *testing.T) {
	q := NewQueue(10)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close(), "fechar duas vezes é inofensivo")

	err := q.Enqueue(context.Background(), queue.Event{ID: "e1"})
	assert.Error(t, err)
}
