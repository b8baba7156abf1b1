package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeliverySendsSignedPayload(t *testing.T) {
	var (
		mu        sync.Mutex
		payload   []byte
		signature string
		userAgent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		payload, _ = io.ReadAll(r.Body)
		signature = r.Header.Get("X-WhatsAI-Signature")
		userAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDelivery(zap.NewNop(), 0)
	err := d.Deliver(context.Background(), srv.URL, "segredo", map[string]interface{}{
		"type": "campaign.status",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "WhatsAI/2.0", userAgent)
	assert.Contains(t, string(payload), "campaign.status")
	assert.True(t, d.VerifySignature(payload, signature, "segredo"))
	assert.False(t, d.VerifySignature(payload, signature, "outro-segredo"))
}

func TestDeliveryOmitsSignatureWithoutSecret(t *testing.T) {
	var signature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-WhatsAI-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDelivery(zap.NewNop(), 0)
	require.NoError(t, d.Deliver(context.Background(), srv.URL, "", map[string]interface{}{"type": "x"}))
	assert.Empty(t, signature)
}

func TestDeliveryRetriesUntilSuccess(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDelivery(zap.NewNop(), 3)
	require.NoError(t, d.Deliver(context.Background(), srv.URL, "s", map[string]interface{}{"type": "x"}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestDeliveryFailsAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDelivery(zap.NewNop(), 1)
	err := d.Deliver(context.Background(), srv.URL, "s", map[string]interface{}{"type": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDeliveryHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDelivery(zap.NewNop(), 5)
	err := d.Deliver(ctx, srv.URL, "s", map[string]interface{}{"type": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
