package config

import (
	"fmt"
	"strings"
	"time"

	"studiobooking/internal/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"

	ReconcileSum    = "sum"
	ReconcileSingle = "single"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	LogDir   string
	LogDebug bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	KafkaBrokers            []string
	KafkaNotificationsTopic string

	PaymentReconcileMode string

	NotificationWorkers   int
	NotificationQueueSize int

	ReminderLead        time.Duration
	MaintenanceInterval time.Duration

	CORSAllowedOrigins []string
}

// Load reads an optional .env file, then environment variables, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:                  strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:                v.GetString("HTTP_ADDR"),
		DatabaseURL:             strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:               strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:                  v.GetDuration("JWT_TTL"),
		LogDir:                  v.GetString("LOG_DIR"),
		LogDebug:                v.GetBool("LOG_DEBUG"),
		RedisAddr:               strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		LockTTL:                 v.GetDuration("LOCK_TTL"),
		KafkaBrokers:            utils.SplitList(v.GetString("KAFKA_BROKERS")),
		KafkaNotificationsTopic: v.GetString("KAFKA_NOTIFICATIONS_TOPIC"),
		PaymentReconcileMode:    strings.ToLower(strings.TrimSpace(v.GetString("PAYMENT_RECONCILE_MODE"))),
		NotificationWorkers:     v.GetInt("NOTIFICATION_WORKERS"),
		NotificationQueueSize:   v.GetInt("NOTIFICATION_QUEUE_SIZE"),
		ReminderLead:            v.GetDuration("REMINDER_LEAD"),
		MaintenanceInterval:     v.GetDuration("MAINTENANCE_INTERVAL"),
		CORSAllowedOrigins:      utils.SplitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "studio.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOG_DIR", "logs/")
	v.SetDefault("LOG_DEBUG", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("KAFKA_NOTIFICATIONS_TOPIC", "studio.notifications")
	v.SetDefault("PAYMENT_RECONCILE_MODE", ReconcileSum)
	v.SetDefault("NOTIFICATION_WORKERS", 4)
	v.SetDefault("NOTIFICATION_QUEUE_SIZE", 256)
	v.SetDefault("REMINDER_LEAD", "24h")
	v.SetDefault("MAINTENANCE_INTERVAL", "1m")
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be > 0")
	}
	if cfg.NotificationWorkers <= 0 {
		return fmt.Errorf("NOTIFICATION_WORKERS must be > 0")
	}
	if cfg.NotificationQueueSize <= 0 {
		return fmt.Errorf("NOTIFICATION_QUEUE_SIZE must be > 0")
	}
	if cfg.ReminderLead <= 0 {
		return fmt.Errorf("REMINDER_LEAD must be > 0")
	}
	if cfg.MaintenanceInterval <= 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL must be > 0")
	}
	if cfg.PaymentReconcileMode != ReconcileSum && cfg.PaymentReconcileMode != ReconcileSingle {
		return fmt.Errorf("PAYMENT_RECONCILE_MODE must be one of: sum, single")
	}

	if IsProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
			return fmt.Errorf("in prod/release DATABASE_URL must point to PostgreSQL")
		}
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}
