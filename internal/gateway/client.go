package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
)

// Client fala com o serviço de gateway que mantém as sessões de
// WhatsApp. O motor de campanhas não conhece o protocolo da sessão:
// só envia texto para um telefone por uma instância e classifica o
// resultado em transitório, permanente ou instância inutilizável.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		log: log.Named("gateway"),
	}
}

type sendRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (c *Client) Send(ctx context.Context, instanceID, phone, text string) (campaign.SendResult, error) {
	payload, err := json.Marshal(sendRequest{Phone: phone, Text: text})
	if err != nil {
		return campaign.SendResult{}, &campaign.PermanentSendError{Err: err}
	}

	url := fmt.Sprintf("%s/instances/%s/messages", c.baseURL, instanceID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return campaign.SendResult{}, &campaign.PermanentSendError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		// falha de rede ou timeout: vale a pena tentar de novo
		return campaign.SendResult{}, &campaign.TransientSendError{Err: err}
	}
	defer resp.Body.Close()

	var body sendResponse
	if derr := json.NewDecoder(resp.Body).Decode(&body); derr != nil && resp.StatusCode < 300 {
		return campaign.SendResult{}, &campaign.TransientSendError{Err: fmt.Errorf("gateway: resposta inválida: %w", derr)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return campaign.SendResult{MessageID: body.MessageID}, nil

	case body.Code == "instance_disconnected" || body.Code == "instance_not_found" || resp.StatusCode == http.StatusLocked:
		c.log.Warn("gateway: instância inutilizável",
			zap.String("instance_id", instanceID),
			zap.Int("status", resp.StatusCode),
			zap.String("code", body.Code),
		)
		return campaign.SendResult{}, fmt.Errorf("%w: %s", campaign.ErrInstanceUnusable, body.Error)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return campaign.SendResult{}, &campaign.TransientSendError{
			Err: fmt.Errorf("gateway: status %d: %s", resp.StatusCode, body.Error),
		}

	default:
		// 4xx restantes: número inválido, payload rejeitado etc.
		return campaign.SendResult{}, &campaign.PermanentSendError{
			Err: fmt.Errorf("gateway: status %d: %s", resp.StatusCode, body.Error),
		}
	}
}
