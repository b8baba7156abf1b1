package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/api/handler"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/api/middleware"
)

type Options struct {
	Env             string
	AuthSecret      string
	GatewayToken    string
	CampaignHandler *handler.CampaignHandler
	InstanceHandler *handler.InstanceHandler
	ReceiptHandler  *handler.ReceiptHandler
	HealthHandler   *handler.HealthHandler
	RateLimit       middleware.RateLimitOption
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	opts.HealthHandler.Register(api)

	// rotas chamadas pelo serviço de gateway, autenticadas pelo token
	// compartilhado da integração
	gatewayGroup := api.Group("")
	gatewayGroup.Use(middleware.GatewayAuth(opts.GatewayToken))
	opts.ReceiptHandler.Register(gatewayGroup)

	protected := api.Group("")
	if opts.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(opts.RateLimit))
	}
	protected.Use(middleware.Auth(opts.AuthSecret))

	opts.CampaignHandler.Register(protected)
	opts.InstanceHandler.Register(protected)

	return router
}
