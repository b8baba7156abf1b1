package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	engine "github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

var (
	ErrInvalidName       = errors.New("nome da campanha inválido")
	ErrEmptyMessage      = errors.New("mensagem da campanha vazia")
	ErrNoRecipients      = errors.New("campanha sem destinatários")
	ErrTooManyRecipients = errors.New("campanha excede o máximo de destinatários")
	ErrNotOwner          = errors.New("campanha não pertence ao usuário")
	ErrNotEditable       = errors.New("apenas campanhas em rascunho podem ser editadas")
	ErrNotDeletable      = errors.New("campanhas em andamento não podem ser removidas")
	ErrInstanceNotFound  = errors.New("instância não encontrada")
)

// InvalidPhoneError aponta o destinatário rejeitado na validação.
type InvalidPhoneError struct {
	Position int
	Phone    string
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("telefone inválido na posição %d: %q", e.Position, e.Phone)
}

// Service orquestra o CRUD de campanhas e repassa as ações de ciclo
// de vida para o Manager. Toda operação valida a propriedade da
// campanha pelo usuário autenticado.
type Service struct {
	campaigns  storage.CampaignRepository
	recipients storage.RecipientRepository
	instances  storage.InstanceRepository
	manager    *engine.Manager
	stats      *engine.StatsAggregator
	cfg        config.CampaignConfig
	log        *zap.Logger
}

func NewService(
	campaigns storage.CampaignRepository,
	recipients storage.RecipientRepository,
	instances storage.InstanceRepository,
	manager *engine.Manager,
	stats *engine.StatsAggregator,
	cfg config.CampaignConfig,
	log *zap.Logger,
) *Service {
	return &Service{
		campaigns:  campaigns,
		recipients: recipients,
		instances:  instances,
		manager:    manager,
		stats:      stats,
		cfg:        cfg,
		log:        log.Named("campaign-service"),
	}
}

type RecipientInput struct {
	Phone     string            `json:"phone"`
	Variables map[string]string `json:"variables,omitempty"`
}

type CreateInput struct {
	UserID      string
	InstanceID  string            `json:"instanceId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Message     string            `json:"message"`
	TemplateID  string            `json:"templateId"`
	MediaURL    string            `json:"mediaUrl"`
	ScheduledAt *time.Time        `json:"scheduledAt"`
	Settings    *model.CampaignSettings `json:"settings"`
	Recipients  []RecipientInput  `json:"recipients"`
}

type UpdateInput struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Message     string                  `json:"message"`
	TemplateID  string                  `json:"templateId"`
	MediaURL    string                  `json:"mediaUrl"`
	ScheduledAt *time.Time              `json:"scheduledAt"`
	Settings    *model.CampaignSettings `json:"settings"`
}

// Create valida e grava uma campanha nova em DRAFT, com a lista de
// destinatários normalizada para E.164.
func (s *Service) Create(ctx context.Context, input CreateInput) (model.Campaign, error) {
	if strings.TrimSpace(input.Name) == "" {
		return model.Campaign{}, ErrInvalidName
	}
	if strings.TrimSpace(input.Message) == "" {
		return model.Campaign{}, ErrEmptyMessage
	}
	if len(input.Recipients) == 0 {
		return model.Campaign{}, ErrNoRecipients
	}
	if s.cfg.MaxRecipients > 0 && len(input.Recipients) > s.cfg.MaxRecipients {
		return model.Campaign{}, ErrTooManyRecipients
	}

	inst, err := s.instances.GetByID(ctx, input.InstanceID)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Campaign{}, ErrInstanceNotFound
	}
	if err != nil {
		return model.Campaign{}, err
	}
	if inst.OwnerUserID != input.UserID {
		return model.Campaign{}, ErrInstanceNotFound
	}

	settings := s.defaultSettings()
	if input.Settings != nil {
		settings = s.normalizeSettings(*input.Settings)
	}

	status := model.CampaignStatusDraft
	if input.ScheduledAt != nil {
		status = model.CampaignStatusScheduled
	}

	c := model.Campaign{
		UserID:      input.UserID,
		InstanceID:  input.InstanceID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Message:     input.Message,
		TemplateID:  input.TemplateID,
		MediaURL:    input.MediaURL,
		Status:      status,
		Settings:    settings,
		ScheduledAt: input.ScheduledAt,
	}

	recipients := make([]model.CampaignRecipient, 0, len(input.Recipients))
	for i, in := range input.Recipients {
		phone, err := normalizePhone(in.Phone)
		if err != nil {
			return model.Campaign{}, &InvalidPhoneError{Position: i, Phone: in.Phone}
		}
		recipients = append(recipients, model.CampaignRecipient{
			Position:  i,
			Phone:     phone,
			Variables: in.Variables,
			Status:    model.RecipientStatusPending,
		})
	}

	created, err := s.campaigns.Create(ctx, c)
	if err != nil {
		return model.Campaign{}, err
	}

	for i := range recipients {
		recipients[i].CampaignID = created.ID
	}
	if err := s.recipients.BulkCreate(ctx, recipients); err != nil {
		// rollback manual: sem destinatários a campanha não serve
		if derr := s.campaigns.Delete(ctx, created.ID); derr != nil {
			s.log.Error("falha ao desfazer campanha órfã", zap.String("campaign_id", created.ID), zap.Error(derr))
		}
		return model.Campaign{}, err
	}

	s.log.Info("campanha criada",
		zap.String("campaign_id", created.ID),
		zap.String("user_id", input.UserID),
		zap.Int("recipients", len(recipients)),
		zap.String("status", string(created.Status)),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (model.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Campaign{}, engine.ErrCampaignNotFound
	}
	if err != nil {
		return model.Campaign{}, err
	}
	if c.UserID != userID {
		// não revela a existência de campanhas alheias
		return model.Campaign{}, engine.ErrCampaignNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]model.Campaign, error) {
	return s.campaigns.ListByUser(ctx, userID)
}

// Update altera os campos editáveis. Só campanhas DRAFT aceitam
// edição; depois do primeiro start a definição é imutável.
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (model.Campaign, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Campaign{}, err
	}
	if c.Status != model.CampaignStatusDraft {
		return model.Campaign{}, ErrNotEditable
	}

	if strings.TrimSpace(input.Name) != "" {
		c.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != "" {
		c.Description = input.Description
	}
	if strings.TrimSpace(input.Message) != "" {
		c.Message = input.Message
	}
	if input.TemplateID != "" {
		c.TemplateID = input.TemplateID
	}
	if input.MediaURL != "" {
		c.MediaURL = input.MediaURL
	}
	if input.ScheduledAt != nil {
		c.ScheduledAt = input.ScheduledAt
	}
	if input.Settings != nil {
		c.Settings = s.normalizeSettings(*input.Settings)
	}

	return s.campaigns.Update(ctx, c)
}

// Delete remove a campanha e seus destinatários. Campanhas RUNNING,
// PAUSED ou SCHEDULED precisam ser canceladas antes.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignStatusDraft && !c.Status.Terminal() {
		return ErrNotDeletable
	}

	if err := s.recipients.DeleteByCampaign(ctx, id); err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		return err
	}
	s.stats.Forget(id)
	return nil
}

// Action aplica start/pause/resume/cancel via Manager.
func (s *Service) Action(ctx context.Context, userID, id string, action engine.Action) (model.Campaign, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return model.Campaign{}, err
	}
	return s.manager.Apply(ctx, id, action)
}

// Schedule agenda uma campanha DRAFT para início automático.
func (s *Service) Schedule(ctx context.Context, userID, id string, at time.Time) (model.Campaign, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return model.Campaign{}, err
	}
	return s.manager.Schedule(ctx, id, at)
}

// Stats entrega o snapshot em memória quando a campanha tem (ou teve)
// dispatcher nesta réplica; senão agrega direto do banco.
func (s *Service) Stats(ctx context.Context, userID, id string) (model.CampaignStats, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return model.CampaignStats{}, err
	}
	if snapshot, ok := s.stats.Snapshot(id); ok {
		return snapshot, nil
	}
	return s.recipients.CountByStatus(ctx, id)
}

func (s *Service) Recipients(ctx context.Context, userID, id string) ([]model.CampaignRecipient, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.recipients.ListByCampaign(ctx, id)
}

// ApplyReceipt avança o status de um destinatário a partir de um
// recibo do gateway. A progressão é monotônica: recibos atrasados ou
// duplicados são ignorados e nunca causam reenvio.
func (s *Service) ApplyReceipt(ctx context.Context, gatewayMessageID string, status model.RecipientStatus) error {
	rec, err := s.recipients.GetByGatewayMessageID(ctx, gatewayMessageID)
	if errors.Is(err, storage.ErrNotFound) {
		// recibo de mensagem que não é de campanha: ignora
		return nil
	}
	if err != nil {
		return err
	}

	if !rec.Status.CanAdvanceTo(status) {
		s.log.Debug("recibo ignorado (sem avanço de status)",
			zap.String("recipient_id", rec.ID),
			zap.String("current", string(rec.Status)),
			zap.String("receipt", string(status)),
		)
		return nil
	}

	rec.Status = status
	if err := s.recipients.Update(ctx, rec); err != nil {
		return err
	}
	s.stats.Record(rec.CampaignID, rec.ID, status)
	return nil
}

func (s *Service) defaultSettings() model.CampaignSettings {
	return model.CampaignSettings{
		DelayBetweenMessagesMs: s.cfg.DefaultDelayMs,
		MaxMessagesPerMinute:   s.cfg.DefaultMaxPerMinute,
		RetryOnFailure:         true,
		MaxRetries:             s.cfg.DefaultMaxRetries,
	}
}

// normalizeSettings preenche campos zerados com os defaults da
// plataforma, mantendo o que o usuário configurou.
func (s *Service) normalizeSettings(in model.CampaignSettings) model.CampaignSettings {
	out := in
	if out.DelayBetweenMessagesMs <= 0 {
		out.DelayBetweenMessagesMs = s.cfg.DefaultDelayMs
	}
	if out.MaxMessagesPerMinute <= 0 {
		out.MaxMessagesPerMinute = s.cfg.DefaultMaxPerMinute
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = s.cfg.DefaultMaxRetries
	}
	return out
}

// normalizePhone valida e formata o telefone em E.164. Números sem o
// prefixo + são rejeitados: a plataforma não adivinha o país.
func normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), "")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("número inválido: %s", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
