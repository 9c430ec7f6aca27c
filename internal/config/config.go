// Package config предоставялет структуры и функции для загрузки конфигурации сервиса.
//
// Конфигурация читается один раз при старте процесса: сначала .env (если есть),
// затем YAML-файл из CONFIG_PATH (если задан), затем переменные окружения,
// которые всегда имеют приоритет.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Stripe          `yaml:"stripe"`
	Storage         `yaml:"storage"`
	Scan            `yaml:"scan"`
	HashCache       `yaml:"hash_cache"`
	HTTPServer      `yaml:"http_server"`
	RateLimits      `yaml:"rate_limits"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	SMTP            `yaml:"smtp"`
	Scheduler       `yaml:"scheduler"`
}

// Stripe настройки платёжного провайдера.
type Stripe struct {
	SecretKey          string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret      string        `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	APIURL             string        `yaml:"api_url" env:"STRIPE_API_URL" env-default:"https://api.stripe.com"`
	APIRequestsPerSec  float64       `yaml:"api_rps" env:"STRIPE_API_RPS" env-default:"20"`
	WebhookTolerance   time.Duration `yaml:"webhook_tolerance" env:"WEBHOOK_TOLERANCE" env-default:"5m"`
	MonthlyPriceIDs    []string      `yaml:"monthly_price_ids" env:"MONTHLY_PRICE_IDS" env-separator:","`
	YearlyPriceIDs     []string      `yaml:"yearly_price_ids" env:"YEARLY_PRICE_IDS" env-separator:","`
	StrictPriceMapping bool          `yaml:"strict_price_mapping" env:"STRICT_PRICE_MAPPING" env-default:"false"`
}

// Storage настройки файлового хранилища.
type Storage struct {
	DatabaseFile   string        `yaml:"database_file" env:"DATABASE_FILE" env-default:"data/users.db"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"DB_ACQUIRE_TIMEOUT" env-default:"30s"`
}

// Scan ограничения истории сканирований.
type Scan struct {
	MaxScanFiles int `yaml:"max_scan_files" env:"MAX_SCAN_FILES" env-default:"1000"`
}

// HashCache настройки кеша проверок сигнатур.
type HashCache struct {
	MaxCacheSize int     `yaml:"max_cache_size" env:"MAX_CACHE_SIZE" env-default:"1000"`
	CacheTTL     Seconds `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"5m"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	Port              int           `yaml:"port" env:"PORT" env-default:"5000"`
	TimeoutHTTP       time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

// RateLimits лимиты запросов в минуту для каждой группы эндпоинтов.
type RateLimits struct {
	Webhook   int `yaml:"webhook" env:"RATE_LIMIT_WEBHOOK" env-default:"30"`
	UserRead  int `yaml:"user_read" env:"RATE_LIMIT_USER_READ" env-default:"60"`
	UserWrite int `yaml:"user_write" env:"RATE_LIMIT_USER_WRITE" env-default:"10"`
	HashRead  int `yaml:"hash_read" env:"RATE_LIMIT_HASH_READ" env-default:"60"`
	HashAdd   int `yaml:"hash_add" env:"RATE_LIMIT_HASH_ADD" env-default:"5"`
	ScanWrite int `yaml:"scan_write" env:"RATE_LIMIT_SCAN_WRITE" env-default:"20"`
	ScanRead  int `yaml:"scan_read" env:"RATE_LIMIT_SCAN_READ" env-default:"60"`
	Health    int `yaml:"health" env:"RATE_LIMIT_HEALTH" env-default:"60"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает работу без redis: кеш и rate limiter живут в памяти процесса.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"2s"`
}

// RabbitMQ настройки публикации событий об изменении подписок.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange           string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"subscriptions"`
	RoutingKey         string        `yaml:"routing_key" env:"RABBITMQ_ROUTING_KEY" env-default:"changed"`
	Queue              string        `yaml:"queue" env:"RABBITMQ_QUEUE" env-default:"subscriptions.changed"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// SMTP настройки отправки писем (используются только notification-sender).
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
	SMTPFrom string `yaml:"from" env:"SMTP_FROM"`
}

// Scheduler настройки expiry-scheduler.
type Scheduler struct {
	ExpiryCheckInterval time.Duration `yaml:"expiry_check_interval" env:"EXPIRY_CHECK_INTERVAL" env-default:"1h"`
}

var (
	// ErrMissingStripeSecret отсутствует секретный ключ провайдера.
	ErrMissingStripeSecret = errors.New("STRIPE_SECRET_KEY must be set")
	// ErrMissingWebhookSecret отсутствует секрет подписи webhook.
	ErrMissingWebhookSecret = errors.New("STRIPE_WEBHOOK_SECRET must be set")
	// ErrMissingRabbitMQ отсутствует адрес брокера.
	ErrMissingRabbitMQ = errors.New("RABBITMQ_URL must be set")
	// ErrMissingSMTP отсутствуют настройки SMTP.
	ErrMissingSMTP = errors.New("SMTP_HOST and SMTP_USER or SMTP_FROM must be set")
)

// Load читает конфигурацию без проверки обязательных полей.
func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load()

	var cfg Config
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%s: config file %s: %w", op, configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// ValidateServer проверяет настройки, без которых webhook-сервер не должен стартовать.
func (c *Config) ValidateServer() error {
	if c.Stripe.SecretKey == "" {
		return ErrMissingStripeSecret
	}
	if c.Stripe.WebhookSecret == "" {
		return ErrMissingWebhookSecret
	}
	return nil
}

// ValidateSender проверяет настройки notification-sender.
func (c *Config) ValidateSender() error {
	if c.RabbitMQURL == "" {
		return ErrMissingRabbitMQ
	}
	if c.SMTPHost == "" || (c.SMTPUser == "" && c.SMTPFrom == "") {
		return ErrMissingSMTP
	}
	return nil
}

// ValidateScheduler проверяет настройки expiry-scheduler.
func (c *Config) ValidateScheduler() error {
	if c.RabbitMQURL == "" {
		return ErrMissingRabbitMQ
	}
	return nil
}

// MustLoad загружает конфиг webhook-сервера и завершает процесс, если он неполон.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return cfg
}

// MustLoadSender загружает конфиг notification-sender.
func MustLoadSender() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.ValidateSender(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return cfg
}

// MustLoadScheduler загружает конфиг expiry-scheduler.
func MustLoadScheduler() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.ValidateScheduler(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return cfg
}

// Address адрес, на котором слушает HTTP-сервер.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// StripeConfigured сообщает, заданы ли оба секрета провайдера.
func (c *Config) StripeConfigured() bool {
	return c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret != ""
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Stripe:\n"+
			"  SecretKey: %s\n"+
			"  WebhookSecret: %s\n"+
			"  APIURL: %s\n"+
			"  WebhookTolerance: %s\n"+
			"  StrictPriceMapping: %t\n"+
			"Storage:\n"+
			"  DatabaseFile: %s\n"+
			"  AcquireTimeout: %s\n"+
			"MaxScanFiles: %d\n"+
			"HashCache:\n"+
			"  MaxCacheSize: %d\n"+
			"  CacheTTL: %s\n"+
			"HTTPServer:\n"+
			"  Port: %d\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ: %s\n"+
			"ExpiryCheckInterval: %s\n",
		c.Env,
		mask(c.Stripe.SecretKey),
		mask(c.Stripe.WebhookSecret),
		c.APIURL,
		c.WebhookTolerance,
		c.StrictPriceMapping,
		c.DatabaseFile,
		c.AcquireTimeout,
		c.MaxScanFiles,
		c.MaxCacheSize,
		c.CacheTTL,
		c.Port,
		c.TimeoutHTTP,
		c.IdleTimeout,
		orDisabled(c.AddressRedis),
		orDisabled(mask(c.RabbitMQURL)),
		c.ExpiryCheckInterval,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func orDisabled(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
