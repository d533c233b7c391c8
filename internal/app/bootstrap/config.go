package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	ServiceID   string
	Version     string
	Environment string

	HTTPPort int
	GRPCPort int

	StorageDriver string
	DatabaseURL   string
	MaxDBConns    int32
	AutoMigrate   bool
	RedisURL      string

	KafkaBrokers       []string
	KafkaConsumerGroup string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration
	SweepInterval        time.Duration
	AutoWithdrawals      bool
	WithdrawalBatchSize  int

	JWTKeyID      string
	JWTPrivateKey string
	JWTPublicKey  string
	TokenTTL      time.Duration
	BcryptCost    int

	StripeSecretKey      string
	StripeWebhookSecret  string
	StripeRefreshURL     string
	StripeReturnURL      string
	StripeDefaultCountry string
	PaymentsEnabled      bool

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	S3Prefix        string

	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampleRate float64

	RateLimitRPS   float64
	RateLimitBurst int

	Currency             string
	CommissionPercent    decimal.Decimal
	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
	CampaignCacheTTL     time.Duration
	SessionPendingExpiry time.Duration
	LogRetention         time.Duration
	UploadURLTTL         time.Duration
	LoginMaxAttempts     int
	LoginLockoutWindow   time.Duration
}

type configFile struct {
	Service struct {
		ID          string `yaml:"id"`
		Version     string `yaml:"version"`
		Environment string `yaml:"environment"`
		HTTPPort    int    `yaml:"http_port"`
		GRPCPort    int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		Driver      string `yaml:"driver"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
	} `yaml:"storage"`
	Dependencies struct {
		PostgresURL        string   `yaml:"postgres_url"`
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
		S3Bucket           string   `yaml:"s3_bucket"`
		S3Region           string   `yaml:"s3_region"`
		S3Endpoint         string   `yaml:"s3_endpoint"`
		S3PublicBaseURL    string   `yaml:"s3_public_base_url"`
		OTLPEndpoint       string   `yaml:"otlp_endpoint"`
	} `yaml:"dependencies"`
	Payments struct {
		Enabled        *bool  `yaml:"enabled"`
		Currency       string `yaml:"currency"`
		Commission     string `yaml:"commission_percent"`
		RefreshURL     string `yaml:"stripe_refresh_url"`
		ReturnURL      string `yaml:"stripe_return_url"`
		DefaultCountry string `yaml:"stripe_default_country"`
	} `yaml:"payments"`
	Workers struct {
		SweepIntervalSeconds int   `yaml:"sweep_interval_seconds"`
		AutoWithdrawals      *bool `yaml:"auto_withdrawals"`
		WithdrawalBatchSize  int   `yaml:"withdrawal_batch_size"`
	} `yaml:"workers"`
	HTTP struct {
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"http"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "super-try-api",
		Version:              "dev",
		Environment:          "development",
		HTTPPort:             8080,
		GRPCPort:             9090,
		StorageDriver:        StorageDriverPostgres,
		MaxDBConns:           20,
		AutoMigrate:          true,
		KafkaConsumerGroup:   "super-try-notifications",
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: 2 * time.Second,
		SweepInterval:        time.Minute,
		WithdrawalBatchSize:  20,
		JWTKeyID:             "super-try-key-1",
		TokenTTL:             24 * time.Hour,
		BcryptCost:           12,
		StripeWebhookSecret:  "whsec_local",
		StripeDefaultCountry: "FR",
		PaymentsEnabled:      true,
		S3Region:             "eu-west-3",
		S3Prefix:             "uploads",
		OTLPInsecure:         true,
		TraceSampleRate:      1.0,
		RateLimitRPS:         20,
		RateLimitBurst:       40,
		Currency:             "EUR",
		CommissionPercent:    decimal.NewFromInt(10),
		IdempotencyTTL:       7 * 24 * time.Hour,
		EventDedupTTL:        7 * 24 * time.Hour,
		CampaignCacheTTL:     time.Minute,
		SessionPendingExpiry: 7 * 24 * time.Hour,
		LogRetention:         90 * 24 * time.Hour,
		UploadURLTTL:         15 * time.Minute,
		LoginMaxAttempts:     5,
		LoginLockoutWindow:   15 * time.Minute,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.Version != "" {
			cfg.Version = f.Service.Version
		}
		if f.Service.Environment != "" {
			cfg.Environment = f.Service.Environment
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Storage.Driver != "" {
			cfg.StorageDriver = f.Storage.Driver
		}
		if f.Storage.AutoMigrate != nil {
			cfg.AutoMigrate = *f.Storage.AutoMigrate
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		cfg.S3Bucket = f.Dependencies.S3Bucket
		if f.Dependencies.S3Region != "" {
			cfg.S3Region = f.Dependencies.S3Region
		}
		cfg.S3Endpoint = f.Dependencies.S3Endpoint
		cfg.S3PublicBaseURL = f.Dependencies.S3PublicBaseURL
		cfg.OTLPEndpoint = f.Dependencies.OTLPEndpoint
		if f.Payments.Enabled != nil {
			cfg.PaymentsEnabled = *f.Payments.Enabled
		}
		if f.Payments.Currency != "" {
			cfg.Currency = f.Payments.Currency
		}
		if f.Payments.Commission != "" {
			pct, parseErr := decimal.NewFromString(f.Payments.Commission)
			if parseErr != nil {
				return Config{}, fmt.Errorf("parse payments.commission_percent: %w", parseErr)
			}
			cfg.CommissionPercent = pct
		}
		if f.Payments.RefreshURL != "" {
			cfg.StripeRefreshURL = f.Payments.RefreshURL
		}
		if f.Payments.ReturnURL != "" {
			cfg.StripeReturnURL = f.Payments.ReturnURL
		}
		if f.Payments.DefaultCountry != "" {
			cfg.StripeDefaultCountry = f.Payments.DefaultCountry
		}
		if f.Workers.SweepIntervalSeconds > 0 {
			cfg.SweepInterval = time.Duration(f.Workers.SweepIntervalSeconds) * time.Second
		}
		if f.Workers.AutoWithdrawals != nil {
			cfg.AutoWithdrawals = *f.Workers.AutoWithdrawals
		}
		if f.Workers.WithdrawalBatchSize > 0 {
			cfg.WithdrawalBatchSize = f.Workers.WithdrawalBatchSize
		}
		if f.HTTP.RateLimitRPS > 0 {
			cfg.RateLimitRPS = f.HTTP.RateLimitRPS
		}
		if f.HTTP.RateLimitBurst > 0 {
			cfg.RateLimitBurst = f.HTTP.RateLimitBurst
		}
	}

	cfg.Environment = envOrDefault("APP_ENV", cfg.Environment)
	cfg.StorageDriver = strings.ToLower(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.AutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.JWTPrivateKey = envOrDefault("JWT_PRIVATE_KEY", cfg.JWTPrivateKey)
	cfg.JWTPublicKey = envOrDefault("JWT_PUBLIC_KEY", cfg.JWTPublicKey)
	cfg.StripeSecretKey = envOrDefault("STRIPE_SECRET_KEY", cfg.StripeSecretKey)
	cfg.StripeWebhookSecret = envOrDefault("STRIPE_WEBHOOK_SECRET", cfg.StripeWebhookSecret)
	cfg.StripeRefreshURL = envOrDefault("STRIPE_REFRESH_URL", cfg.StripeRefreshURL)
	cfg.StripeReturnURL = envOrDefault("STRIPE_RETURN_URL", cfg.StripeReturnURL)
	cfg.StripeDefaultCountry = envOrDefault("STRIPE_DEFAULT_COUNTRY", cfg.StripeDefaultCountry)
	cfg.PaymentsEnabled = envBool("PAYMENTS_ENABLED", cfg.PaymentsEnabled)
	cfg.S3Bucket = envOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = envOrDefault("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = envOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3PublicBaseURL = envOrDefault("S3_PUBLIC_BASE_URL", cfg.S3PublicBaseURL)
	cfg.OTLPEndpoint = envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.OTLPInsecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OTLPInsecure)
	cfg.TraceSampleRate = envFloat("OTEL_TRACES_SAMPLE_RATE", cfg.TraceSampleRate)
	cfg.Currency = strings.ToUpper(envOrDefault("CURRENCY", cfg.Currency))
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(envInt("SWEEP_INTERVAL_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second
	cfg.AutoWithdrawals = envBool("FEATURE_AUTO_WITHDRAWALS", cfg.AutoWithdrawals)
	cfg.WithdrawalBatchSize = envInt("WITHDRAWAL_BATCH_SIZE", cfg.WithdrawalBatchSize)
	cfg.TokenTTL = time.Duration(envInt("TOKEN_TTL_MINUTES", int(cfg.TokenTTL.Minutes()))) * time.Minute
	cfg.BcryptCost = envInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.CampaignCacheTTL = time.Duration(envInt("CAMPAIGN_CACHE_SECONDS", int(cfg.CampaignCacheTTL.Seconds()))) * time.Second
	cfg.SessionPendingExpiry = time.Duration(envInt("SESSION_PENDING_EXPIRY_HOURS", int(cfg.SessionPendingExpiry.Hours()))) * time.Hour
	cfg.LogRetention = time.Duration(envInt("LOG_RETENTION_DAYS", int(cfg.LogRetention.Hours()/24))) * 24 * time.Hour
	cfg.UploadURLTTL = time.Duration(envInt("UPLOAD_URL_TTL_MINUTES", int(cfg.UploadURLTTL.Minutes()))) * time.Minute
	cfg.LoginMaxAttempts = envInt("LOGIN_MAX_ATTEMPTS", cfg.LoginMaxAttempts)
	cfg.LoginLockoutWindow = time.Duration(envInt("LOGIN_LOCKOUT_MINUTES", int(cfg.LoginLockoutWindow.Minutes()))) * time.Minute
	if raw := strings.TrimSpace(os.Getenv("COMMISSION_PERCENT")); raw != "" {
		pct, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("parse COMMISSION_PERCENT: %w", parseErr)
		}
		cfg.CommissionPercent = pct
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
		}
	case StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.CommissionPercent.IsNegative() || cfg.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, fmt.Errorf("commission percent must be between 0 and 100")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
