package instance

import (
	"context"
	"errors"
	"strings"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

var (
	ErrInvalidName       = errors.New("nome da instância inválido")
	ErrInvalidWebhookURL = errors.New("url de webhook inválida")
	ErrNotFound          = errors.New("instância não encontrada")
)

type Service struct {
	repo storage.InstanceRepository
}

func NewService(repo storage.InstanceRepository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name          string `json:"name"`
	WebhookURL    string `json:"webhookUrl"`
	WebhookSecret string `json:"webhookSecret"`
	OwnerUserID   string
}

type UpdateInput struct {
	Name          string `json:"name"`
	WebhookURL    string `json:"webhookUrl"`
	WebhookSecret string `json:"webhookSecret"`
}

func (s *Service) Create(ctx context.Context, input CreateInput) (model.Instance, error) {
	if strings.TrimSpace(input.Name) == "" {
		return model.Instance{}, ErrInvalidName
	}
	if err := validateWebhookURL(input.WebhookURL); err != nil {
		return model.Instance{}, err
	}

	return s.repo.Create(ctx, model.Instance{
		Name:          strings.TrimSpace(input.Name),
		OwnerUserID:   input.OwnerUserID,
		Status:        model.InstanceStatusPending,
		WebhookURL:    strings.TrimSpace(input.WebhookURL),
		WebhookSecret: input.WebhookSecret,
	})
}

func (s *Service) Get(ctx context.Context, ownerUserID, id string) (model.Instance, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Instance{}, ErrNotFound
	}
	if err != nil {
		return model.Instance{}, err
	}
	if inst.OwnerUserID != ownerUserID {
		return model.Instance{}, ErrNotFound
	}
	return inst, nil
}

func (s *Service) List(ctx context.Context, ownerUserID string) ([]model.Instance, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) Update(ctx context.Context, ownerUserID, id string, input UpdateInput) (model.Instance, error) {
	inst, err := s.Get(ctx, ownerUserID, id)
	if err != nil {
		return model.Instance{}, err
	}

	if strings.TrimSpace(input.Name) != "" {
		inst.Name = strings.TrimSpace(input.Name)
	}
	if input.WebhookURL != "" {
		if err := validateWebhookURL(input.WebhookURL); err != nil {
			return model.Instance{}, err
		}
		inst.WebhookURL = strings.TrimSpace(input.WebhookURL)
	}
	if input.WebhookSecret != "" {
		inst.WebhookSecret = input.WebhookSecret
	}

	return s.repo.Update(ctx, inst)
}

func (s *Service) Delete(ctx context.Context, ownerUserID, id string) error {
	if _, err := s.Get(ctx, ownerUserID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SetStatus é chamado pela ingestão de eventos do gateway quando a
// sessão conecta ou cai.
func (s *Service) SetStatus(ctx context.Context, id string, status model.InstanceStatus) error {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	inst.Status = status
	_, err = s.repo.Update(ctx, inst)
	return err
}

func validateWebhookURL(url string) error {
	url = strings.TrimSpace(url)
	if url != "" && !strings.HasPrefix(url, "http") {
		return ErrInvalidWebhookURL
	}
	return nil
}
