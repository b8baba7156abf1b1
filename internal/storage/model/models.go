package model

import "time"

type InstanceStatus string

const (
	InstanceStatusPending      InstanceStatus = "pending"
	InstanceStatusActive       InstanceStatus = "active"
	InstanceStatusError        InstanceStatus = "error"
	InstanceStatusDisconnected InstanceStatus = "disconnected"
)

// Instance é uma conta de WhatsApp gerenciada pela plataforma.
// A sessão em si vive no serviço de gateway; aqui guardamos apenas
// o vínculo com o dono e o webhook de notificações.
type Instance struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	OwnerUserID   string         `json:"ownerUserId"`
	Status        InstanceStatus `json:"status"`
	WebhookURL    string         `json:"webhookUrl,omitempty"`
	WebhookSecret string         `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusRunning   CampaignStatus = "RUNNING"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
	CampaignStatusFailed    CampaignStatus = "FAILED"
)

// Terminal informa se o status encerra a campanha em definitivo.
func (s CampaignStatus) Terminal() bool {
	switch s {
	case CampaignStatusCompleted, CampaignStatusCancelled, CampaignStatusFailed:
		return true
	}
	return false
}

// CampaignSettings controla o ritmo e a política de retry de uma
// campanha. Ambos delayBetweenMessages e maxMessagesPerMinute são
// honrados: vale o intervalo mais restritivo.
type CampaignSettings struct {
	DelayBetweenMessagesMs int  `json:"delayBetweenMessagesMs"`
	MaxMessagesPerMinute   int  `json:"maxMessagesPerMinute"`
	RetryOnFailure         bool `json:"retryOnFailure"`
	MaxRetries             int  `json:"maxRetries"`
}

type Campaign struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	InstanceID  string           `json:"instanceId"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Message     string           `json:"message"`
	TemplateID  string           `json:"templateId,omitempty"`
	MediaURL    string           `json:"mediaUrl,omitempty"`
	Status      CampaignStatus   `json:"status"`
	Settings    CampaignSettings `json:"settings"`
	// Cursor é o snapshot serializado do progresso de disparo
	// (offset + fila de retry), persistido a cada commit.
	Cursor []byte `json:"-"`
	// StatusReason explica paradas não solicitadas pelo usuário:
	// motivo de falha ou quota excedida em pausas automáticas.
	StatusReason string     `json:"statusReason,omitempty"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "PENDING"
	RecipientStatusSent      RecipientStatus = "SENT"
	RecipientStatusDelivered RecipientStatus = "DELIVERED"
	RecipientStatusRead      RecipientStatus = "READ"
	RecipientStatusFailed    RecipientStatus = "FAILED"
)

// rank define a progressão monotônica de status de destinatário.
// FAILED fica fora da escala: pode voltar a PENDING via retry.
func (s RecipientStatus) rank() int {
	switch s {
	case RecipientStatusPending:
		return 0
	case RecipientStatusSent:
		return 1
	case RecipientStatusDelivered:
		return 2
	case RecipientStatusRead:
		return 3
	}
	return -1
}

// CanAdvanceTo diz se um recibo pode mover o destinatário para o
// novo status. Recibos nunca regridem status nem ressuscitam
// destinatários FAILED.
func (s RecipientStatus) CanAdvanceTo(next RecipientStatus) bool {
	if s == RecipientStatusFailed || next == RecipientStatusFailed {
		return false
	}
	return next.rank() > s.rank()
}

// Dispatched informa se o destinatário já recebeu (ou está
// recebendo) a mensagem e portanto nunca deve ser reenviado.
func (s RecipientStatus) Dispatched() bool {
	return s == RecipientStatusSent || s == RecipientStatusDelivered || s == RecipientStatusRead
}

// CampaignRecipient é uma entrada ordenada da lista de destinatários.
// Position define a ordem de disparo e é estável.
type CampaignRecipient struct {
	ID               string            `json:"id"`
	CampaignID       string            `json:"campaignId"`
	Position         int               `json:"position"`
	Phone            string            `json:"phone"`
	Variables        map[string]string `json:"variables,omitempty"`
	Status           RecipientStatus   `json:"status"`
	GatewayMessageID string            `json:"gatewayMessageId,omitempty"`
	SentAt           *time.Time        `json:"sentAt,omitempty"`
	Error            string            `json:"error,omitempty"`
	RetryCount       int               `json:"retryCount"`
}

// CampaignStats é derivado dos status dos destinatários.
// Invariante: Pending+Sent+Delivered+Read+Failed == Total.
type CampaignStats struct {
	Total     int `json:"totalRecipients"`
	Pending   int `json:"pending"`
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Read      int `json:"read"`
	Failed    int `json:"failed"`
}
