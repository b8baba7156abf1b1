package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/api/handler"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/api/middleware"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/app"
	engine "github.com/softwarePredador/WhatsAI2-sub000/internal/campaign"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/gateway"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/logger"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/notify"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/clock"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/plan"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/scheduler"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/server"
	campaignSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/campaign"
	instanceSvc "github.com/softwarePredador/WhatsAI2-sub000/internal/service/instance"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/service/template"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage"
)

func main() {
	cfg := config.Load()

	logr, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logr.Sync()

	logr.Info("iniciando aplicação",
		zap.String("env", cfg.App.Env),
		zap.String("log_level", cfg.Log.Level),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Storage.Driver),
	)

	repos, err := storage.NewRepositories(cfg, logr)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	clk := clock.System()

	var counter plan.DailyCounter
	if repos.RedisClient != nil {
		counter = plan.NewRedisCounter(repos.RedisClient.RDB(), clk)
	} else {
		counter = plan.NewMemoryCounter(clk)
	}
	quotaGuard := plan.NewGuard(repos.Campaign, counter, cfg.Quota, logr)

	gatewayClient := gateway.NewClient(cfg.Gateway, logr)
	renderer := template.NewService()

	publisher := notify.NewPublisher(repos.EventQueue, logr)
	stats := engine.NewStatsAggregator()

	store := campaignSvc.NewStore(repos.Campaign, repos.Recipient)
	manager := engine.NewManager(store, quotaGuard, gatewayClient, renderer, publisher, stats, repos.Locker, clk, logr, engine.Config{
		RetryBaseDelay: time.Duration(cfg.Campaign.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:  time.Duration(cfg.Campaign.RetryMaxDelayMs) * time.Millisecond,
		LockTTL:        time.Duration(cfg.Campaign.LockTTLSeconds) * time.Second,
	})

	campaignService := campaignSvc.NewService(repos.Campaign, repos.Recipient, repos.Instance, manager, stats, cfg.Campaign, logr)
	instanceService := instanceSvc.NewService(repos.Instance)

	logr.Info("inicializando pool de notificação", zap.Int("workers", cfg.Webhook.Workers))
	delivery := notify.NewDelivery(logr, cfg.Webhook.MaxRetries)
	pool := notify.NewPool(repos.EventQueue, repos.Instance, delivery, logr, cfg.Webhook.Workers)
	pool.Start(context.Background())

	// campanhas deixadas em RUNNING por um crash retomam do cursor
	if err := manager.Recover(context.Background()); err != nil {
		logr.Error("falha na recuperação de campanhas", zap.Error(err))
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(repos.Campaign, manager, clk, cfg.Scheduler, logr)
		if err := sched.Start(context.Background()); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	} else {
		logr.Info("scheduler desativado via configuração")
	}

	router := server.NewRouter(server.Options{
		Env:             cfg.App.Env,
		AuthSecret:      cfg.JWT.Secret,
		GatewayToken:    cfg.Gateway.Token,
		CampaignHandler: handler.NewCampaignHandler(campaignService, logr),
		InstanceHandler: handler.NewInstanceHandler(instanceService, logr),
		ReceiptHandler:  handler.NewReceiptHandler(campaignService, instanceService, logr),
		HealthHandler:   handler.NewHealthHandler(),
		RateLimit: middleware.RateLimitOption{
			Enabled:  cfg.RateLimit.Enabled,
			Requests: cfg.RateLimit.Requests,
			Window:   time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			Prefix:   cfg.RateLimit.Prefix,
			Limiter:  repos.RateLimiter,
			Logger:   logr,
		},
	})

	application := app.New(cfg, logr, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := application.Run(context.Background()); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logr.Info("sinal de encerramento recebido")
	case err := <-errCh:
		logr.Error("servidor finalizado com erro", zap.Error(err))
	}

	logr.Info("iniciando shutdown graceful")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logr.Error("erro no shutdown do servidor HTTP", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	manager.Shutdown()
	pool.Stop()

	logr.Info("aplicação encerrada")
}
