package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	engine "github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/response"
	campaignSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

type CampaignHandler struct {
	service *campaignSvc.Service
	log     *zap.Logger
}

func NewCampaignHandler(service *campaignSvc.Service, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{service: service, log: log}
}

func (h *CampaignHandler) Register(r *gin.RouterGroup) {
	r.POST("/campaigns", h.create)
	r.GET("/campaigns", h.list)
	r.GET("/campaigns/:id", h.get)
	r.PUT("/campaigns/:id", h.update)
	r.DELETE("/campaigns/:id", h.delete)
	r.POST("/campaigns/:id/actions", h.action)
	r.GET("/campaigns/:id/stats", h.stats)
	r.GET("/campaigns/:id/recipients", h.recipients)
}

type createCampaignRequest struct {
	InstanceID  string                       `json:"instanceId" binding:"required"`
	Name        string                       `json:"name" binding:"required,min=2"`
	Description string                       `json:"description"`
	Message     string                       `json:"message" binding:"required"`
	TemplateID  string                       `json:"templateId"`
	MediaURL    string                       `json:"mediaUrl"`
	ScheduledAt *time.Time                   `json:"scheduledAt"`
	Settings    *model.CampaignSettings      `json:"settings"`
	Recipients  []campaignSvc.RecipientInput `json:"recipients" binding:"required"`
}

func (h *CampaignHandler) create(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	campaign, err := h.service.Create(c.Request.Context(), campaignSvc.CreateInput{
		UserID:      c.GetString("userID"),
		InstanceID:  req.InstanceID,
		Name:        req.Name,
		Description: req.Description,
		Message:     req.Message,
		TemplateID:  req.TemplateID,
		MediaURL:    req.MediaURL,
		ScheduledAt: req.ScheduledAt,
		Settings:    req.Settings,
		Recipients:  req.Recipients,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, campaign)
}

func (h *CampaignHandler) list(c *gin.Context) {
	campaigns, err := h.service.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	response.Success(c, http.StatusOK, campaigns)
}

func (h *CampaignHandler) get(c *gin.Context) {
	campaign, err := h.service.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, campaign)
}

type updateCampaignRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Message     string                  `json:"message"`
	TemplateID  string                  `json:"templateId"`
	MediaURL    string                  `json:"mediaUrl"`
	ScheduledAt *time.Time              `json:"scheduledAt"`
	Settings    *model.CampaignSettings `json:"settings"`
}

func (h *CampaignHandler) update(c *gin.Context) {
	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	campaign, err := h.service.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), campaignSvc.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Message:     req.Message,
		TemplateID:  req.TemplateID,
		MediaURL:    req.MediaURL,
		ScheduledAt: req.ScheduledAt,
		Settings:    req.Settings,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, campaign)
}

func (h *CampaignHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type actionRequest struct {
	Action      string     `json:"action" binding:"required"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

func (h *CampaignHandler) action(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	userID := c.GetString("userID")
	id := c.Param("id")

	// agendamento é tratado como ação para manter uma única rota de
	// ciclo de vida
	if req.Action == "schedule" {
		if req.ScheduledAt == nil {
			response.ErrorWithMessage(c, http.StatusBadRequest, "scheduledAt é obrigatório para agendar")
			return
		}
		campaign, err := h.service.Schedule(c.Request.Context(), userID, id, *req.ScheduledAt)
		if err != nil {
			h.renderError(c, err)
			return
		}
		response.Success(c, http.StatusOK, campaign)
		return
	}

	action, err := engine.ParseAction(req.Action)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	campaign, err := h.service.Action(c.Request.Context(), userID, id, action)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, campaign)
}

func (h *CampaignHandler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *CampaignHandler) recipients(c *gin.Context) {
	recipients, err := h.service.Recipients(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if recipients == nil {
		recipients = []model.CampaignRecipient{}
	}
	response.Success(c, http.StatusOK, recipients)
}

// renderError traduz a taxonomia de erros do domínio em status HTTP.
func (h *CampaignHandler) renderError(c *gin.Context, err error) {
	var invalidPhone *campaignSvc.InvalidPhoneError

	switch {
	case errors.Is(err, engine.ErrCampaignNotFound),
		errors.Is(err, campaignSvc.ErrInstanceNotFound):
		response.Error(c, http.StatusNotFound, err)

	case engine.IsInvalidTransition(err),
		engine.IsQuotaExceeded(err),
		errors.Is(err, campaignSvc.ErrNotEditable),
		errors.Is(err, campaignSvc.ErrNotDeletable):
		response.Error(c, http.StatusConflict, err)

	case errors.Is(err, campaignSvc.ErrInvalidName),
		errors.Is(err, campaignSvc.ErrEmptyMessage),
		errors.Is(err, campaignSvc.ErrNoRecipients),
		errors.Is(err, campaignSvc.ErrTooManyRecipients),
		errors.As(err, &invalidPhone):
		response.Error(c, http.StatusBadRequest, err)

	default:
		h.log.Error("erro interno na API de campanhas", zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "erro interno")
	}
}
