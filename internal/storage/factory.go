package storage

import (
	"go.uber.org/zap"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/config"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/lock"
	lock_memory "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/lock/memory"
	lock_redis "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/lock/redis"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue"
	queue_memory "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue/memory"
	queue_redis "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/queue/redis"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/ratelimiter"
	limiter_memory "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/ratelimiter/memory"
	limiter_redis "github.com/softwarePredador/WhatsAI2-sub000/internal/pkg/ratelimiter/redis"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/postgres"
	storage_redis "github.com/softwarePredador/WhatsAI2-sub000/internal/storage/redis"
	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/sqlite"
)

type Repositories struct {
	Instance  InstanceRepository
	Campaign  CampaignRepository
	Recipient RecipientRepository

	RedisClient *storage_redis.Client // nil quando Redis está desabilitado
	EventQueue  queue.Queue
	RateLimiter ratelimiter.Limiter
	Locker      lock.Locker
}

func NewRepositories(cfg config.Config, log *zap.Logger) (*Repositories, error) {
	log.Info("inicializando repositórios",
		zap.String("driver", cfg.Storage.Driver),
	)

	var (
		eventQueue  queue.Queue
		rateLimiter ratelimiter.Limiter
		locker      lock.Locker
		storeRedis  *storage_redis.Client
		err         error
	)

	if cfg.Redis.Enabled {
		log.Info("inicializando Redis...")
		storeRedis, err = storage_redis.New(cfg.Redis, log)
		if err != nil {
			log.Error("erro ao conectar com Redis", zap.Error(err))
			return nil, err
		}

		redisClient := storeRedis.RDB()
		eventQueue = queue_redis.NewQueue(redisClient, "campaign:events")
		rateLimiter = limiter_redis.NewLimiter(redisClient)
		locker = lock_redis.NewLocker(redisClient)
		log.Info("Redis conectado, fila, limiter e locker configurados")
	} else {
		log.Info("usando implementações em memória (Redis desabilitado)")
		eventQueue = queue_memory.NewQueue(10000)
		rateLimiter = limiter_memory.NewLimiter()
		locker = lock_memory.NewLocker()
		storeRedis = nil
	}

	switch cfg.Storage.Driver {
	case "sqlite", "":
		log.Debug("criando conexão com SQLite")
		db, err := sqlite.New(cfg.Storage.DataDir, log)
		if err != nil {
			log.Error("erro ao conectar com SQLite", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios SQLite criados com sucesso", zap.String("data_dir", cfg.Storage.DataDir))
		return &Repositories{
			Instance:    sqlite.NewInstanceRepository(db),
			Campaign:    sqlite.NewCampaignRepository(db),
			Recipient:   sqlite.NewRecipientRepository(db),
			RedisClient: storeRedis,
			EventQueue:  eventQueue,
			RateLimiter: rateLimiter,
			Locker:      locker,
		}, nil

	case "postgres":
		log.Debug("criando conexão com PostgreSQL")
		db, err := postgres.New(cfg.DB, log)
		if err != nil {
			log.Error("erro ao conectar com PostgreSQL", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios PostgreSQL criados com sucesso")
		return &Repositories{
			Instance:    postgres.NewInstanceRepository(db),
			Campaign:    postgres.NewCampaignRepository(db),
			Recipient:   postgres.NewRecipientRepository(db),
			RedisClient: storeRedis,
			EventQueue:  eventQueue,
			RateLimiter: rateLimiter,
			Locker:      locker,
		}, nil

	default:
		log.Error("driver de storage desconhecido",
			zap.String("driver", cfg.Storage.Driver),
		)
		return nil, &ErrUnknownDriver{Driver: cfg.Storage.Driver}
	}
}

type ErrUnknownDriver struct {
	Driver string
}

func (e *ErrUnknownDriver) Error() string {
	return "storage: driver desconhecido: " + e.Driver
}
