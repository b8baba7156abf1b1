package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GatewayConfig{
		BaseURL:        srv.URL,
		Token:          "token-secreto",
		TimeoutSeconds: 5,
	}, zap.NewNop())
}

func TestClientSendSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"messageId": "wamid.123"})
	})

	res, err := client.Send(context.Background(), "inst-1", "+5511999990000", "olá")
	require.NoError(t, err)
	assert.Equal(t, "wamid.123", res.MessageID)
	assert.Equal(t, "/instances/inst-1/messages", gotPath)
	assert.Equal(t, "Bearer token-secreto", gotAuth)
	assert.Equal(t, map[string]string{"phone": "+5511999990000", "text": "olá"}, gotBody)
}

func TestClientSendClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   map[string]string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "5xx é transitório",
			status: http.StatusBadGateway,
			body:   map[string]string{"error": "upstream caiu"},
			check: func(t *testing.T, err error) {
				var te *campaign.TransientSendError
				assert.ErrorAs(t, err, &te)
			},
		},
		{
			name:   "429 é transitório",
			status: http.StatusTooManyRequests,
			body:   map[string]string{"error": "calma"},
			check: func(t *testing.T, err error) {
				var te *campaign.TransientSendError
				assert.ErrorAs(t, err, &te)
			},
		},
		{
			name:   "400 é permanente",
			status: http.StatusBadRequest,
			body:   map[string]string{"error": "número inválido"},
			check: func(t *testing.T, err error) {
				var pe *campaign.PermanentSendError
				assert.ErrorAs(t, err, &pe)
			},
		},
		{
			name:   "instância desconectada é fatal",
			status: http.StatusConflict,
			body:   map[string]string{"code": "instance_disconnected", "error": "sessão caiu"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, campaign.ErrInstanceUnusable)
			},
		},
		{
			name:   "instância inexistente é fatal",
			status: http.StatusNotFound,
			body:   map[string]string{"code": "instance_not_found", "error": "não existe"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, campaign.ErrInstanceUnusable)
			},
		},
		{
			name:   "423 é fatal mesmo sem code",
			status: http.StatusLocked,
			body:   map[string]string{"error": "sessão bloqueada"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, campaign.ErrInstanceUnusable)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(tc.body)
			})

			_, err := client.Send(context.Background(), "inst-1", "+5511999990000", "olá")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestClientSendNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // porta morta

	client := NewClient(config.GatewayConfig{BaseURL: srv.URL, TimeoutSeconds: 1}, zap.NewNop())
	_, err := client.Send(context.Background(), "inst-1", "+5511999990000", "olá")

	var te *campaign.TransientSendError
	assert.ErrorAs(t, err, &te)
}
