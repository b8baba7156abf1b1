package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/response"
	campaignSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/campaign"
	instanceSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/instance"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

// ReceiptHandler recebe os callbacks assíncronos do serviço de
// gateway: recibos de entrega/leitura e mudanças de status de sessão.
type ReceiptHandler struct {
	campaigns *campaignSvc.Service
	instances *instanceSvc.Service
	log       *zap.Logger
}

func NewReceiptHandler(campaigns *campaignSvc.Service, instances *instanceSvc.Service, log *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{campaigns: campaigns, instances: instances, log: log}
}

func (h *ReceiptHandler) Register(r *gin.RouterGroup) {
	r.POST("/gateway/receipts", h.receipts)
	r.POST("/gateway/sessions", h.sessionStatus)
}

type receiptItem struct {
	MessageID string `json:"messageId" binding:"required"`
	Type      string `json:"type" binding:"required"` // delivered | read
}

type receiptsRequest struct {
	Receipts []receiptItem `json:"receipts" binding:"required"`
}

func (h *ReceiptHandler) receipts(c *gin.Context) {
	var req receiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	applied := 0
	for _, r := range req.Receipts {
		var status model.RecipientStatus
		switch r.Type {
		case "delivered":
			status = model.RecipientStatusDelivered
		case "read":
			status = model.RecipientStatusRead
		default:
			h.log.Debug("recibo com tipo desconhecido ignorado", zap.String("type", r.Type))
			continue
		}

		if err := h.campaigns.ApplyReceipt(c.Request.Context(), r.MessageID, status); err != nil {
			h.log.Error("falha ao aplicar recibo",
				zap.String("gateway_message_id", r.MessageID),
				zap.Error(err),
			)
			continue
		}
		applied++
	}

	response.Success(c, http.StatusOK, gin.H{"applied": applied})
}

type sessionStatusRequest struct {
	InstanceID string `json:"instanceId" binding:"required"`
	Status     string `json:"status" binding:"required"`
}

func (h *ReceiptHandler) sessionStatus(c *gin.Context) {
	var req sessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	status := model.InstanceStatus(req.Status)
	switch status {
	case model.InstanceStatusActive, model.InstanceStatusDisconnected, model.InstanceStatusError, model.InstanceStatusPending:
	default:
		response.ErrorWithMessage(c, http.StatusBadRequest, "status de sessão desconhecido")
		return
	}

	if err := h.instances.SetStatus(c.Request.Context(), req.InstanceID, status); err != nil {
		h.log.Error("falha ao atualizar status de instância",
			zap.String("instance_id", req.InstanceID),
			zap.Error(err),
		)
		response.ErrorWithMessage(c, http.StatusInternalServerError, "erro interno")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
