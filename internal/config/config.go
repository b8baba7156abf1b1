package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v10"
)

const Version = "2.0.0"

type Config struct {
	App       AppConfig
	DB        DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Campaign  CampaignConfig
	Quota     QuotaConfig
	Scheduler SchedulerConfig
	Gateway   GatewayConfig
	Webhook   WebhookConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

type StorageConfig struct {
	Driver  string `env:"DB_DRIVER" envDefault:"sqlite"`
	DataDir string `env:"DATA_DIR" envDefault:"/app/data"`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN retorna a string de conexão em formato aceito pelo pgxpool.
func (cfg DatabaseConfig) DSN() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
}

type JWTConfig struct {
	Secret   string `env:"JWT_SECRET,required"`
	ExpHours int    `env:"JWT_EXP_HOURS" envDefault:"24"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"debug"`
}

type RateLimitConfig struct {
	Enabled       bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Requests      int    `env:"RATE_LIMIT_REQUESTS" envDefault:"300"`
	WindowSeconds int    `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	Prefix        string `env:"RATE_LIMIT_PREFIX" envDefault:"ratelimit:api"`
}

// CampaignConfig controla o comportamento padrão do motor de disparo.
type CampaignConfig struct {
	DefaultDelayMs      int `env:"CAMPAIGN_DEFAULT_DELAY_MS" envDefault:"3000"`
	DefaultMaxPerMinute int `env:"CAMPAIGN_DEFAULT_MAX_PER_MINUTE" envDefault:"20"`
	DefaultMaxRetries   int `env:"CAMPAIGN_DEFAULT_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelayMs    int `env:"CAMPAIGN_RETRY_BASE_DELAY_MS" envDefault:"5000"`
	RetryMaxDelayMs     int `env:"CAMPAIGN_RETRY_MAX_DELAY_MS" envDefault:"300000"`
	MaxRecipients       int `env:"CAMPAIGN_MAX_RECIPIENTS" envDefault:"10000"`
	LockTTLSeconds      int `env:"CAMPAIGN_LOCK_TTL_SECONDS" envDefault:"120"`
}

// QuotaConfig define os limites de plano aplicados pelo QuotaGuard.
// -1 significa ilimitado.
type QuotaConfig struct {
	MaxCampaigns     int `env:"QUOTA_MAX_CAMPAIGNS" envDefault:"10"`
	MaxDailyMessages int `env:"QUOTA_MAX_DAILY_MESSAGES" envDefault:"1000"`
}

type SchedulerConfig struct {
	Enabled bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	Spec    string `env:"SCHEDULER_CRON_SPEC" envDefault:"* * * * *"`
}

type GatewayConfig struct {
	BaseURL        string `env:"GATEWAY_BASE_URL" envDefault:"http://localhost:8081"`
	Token          string `env:"GATEWAY_TOKEN" envDefault:""`
	TimeoutSeconds int    `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"30"`
}

type WebhookConfig struct {
	Workers    int `env:"WEBHOOK_WORKERS" envDefault:"4"`
	MaxRetries int `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
}

// Load carrega as configurações da aplicação.
func Load() Config {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: não foi possível carregar variáveis: %v", err)
	}
	return cfg
}
