package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/response"
	instanceSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/instance"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

type InstanceHandler struct {
	service *instanceSvc.Service
	log     *zap.Logger
}

func NewInstanceHandler(service *instanceSvc.Service, log *zap.Logger) *InstanceHandler {
	return &InstanceHandler{service: service, log: log}
}

func (h *InstanceHandler) Register(r *gin.RouterGroup) {
	r.GET("/instances", h.list)
	r.GET("/instances/:id", h.get)
	r.POST("/instances", h.create)
	r.PUT("/instances/:id", h.update)
	r.DELETE("/instances/:id", h.delete)
}

type createInstanceRequest struct {
	Name          string `json:"name" binding:"required,min=2"`
	WebhookURL    string `json:"webhookUrl"`
	WebhookSecret string `json:"webhookSecret"`
}

func (h *InstanceHandler) create(c *gin.Context) {
	var req createInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	inst, err := h.service.Create(c.Request.Context(), instanceSvc.CreateInput{
		Name:          req.Name,
		WebhookURL:    req.WebhookURL,
		WebhookSecret: req.WebhookSecret,
		OwnerUserID:   c.GetString("userID"),
	})
	if err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}
	response.Success(c, http.StatusCreated, inst)
}

func (h *InstanceHandler) get(c *gin.Context) {
	inst, err := h.service.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, inst)
}

func (h *InstanceHandler) list(c *gin.Context) {
	instances, err := h.service.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if instances == nil {
		instances = []model.Instance{}
	}
	response.Success(c, http.StatusOK, instances)
}

type updateInstanceRequest struct {
	Name          string `json:"name"`
	WebhookURL    string `json:"webhookUrl"`
	WebhookSecret string `json:"webhookSecret"`
}

func (h *InstanceHandler) update(c *gin.Context) {
	var req updateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	inst, err := h.service.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), instanceSvc.UpdateInput{
		Name:          req.Name,
		WebhookURL:    req.WebhookURL,
		WebhookSecret: req.WebhookSecret,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, inst)
}

func (h *InstanceHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *InstanceHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, instanceSvc.ErrNotFound):
		response.Error(c, http.StatusNotFound, err)
	case errors.Is(err, instanceSvc.ErrInvalidName), errors.Is(err, instanceSvc.ErrInvalidWebhookURL):
		response.Error(c, http.StatusBadRequest, err)
	default:
		h.log.Error("erro interno na API de instâncias", zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "erro interno")
	}
}
