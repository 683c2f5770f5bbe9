package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
	apperrors "github.com/shreyansh2708-git/samadhan/pkg/util"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Escalation   EscalationConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	StoreTimeoutSeconds   int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	SessionTimeoutMinutes int
	BcryptCost            int
	SelfRegistration      bool
}

// SLAConfig holds per-priority resolution windows in hours.
type SLAConfig struct {
	CriticalHours int
	HighHours     int
	MediumHours   int
	LowHours      int
}

// EscalationConfig controls the breach sweep.
type EscalationConfig struct {
	PollIntervalSeconds int
	ThresholdHours      int
	MaxRetries          int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			StoreTimeoutSeconds:   getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTimeoutMinutes: getEnvAsInt("AUTH_SESSION_TIMEOUT_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SelfRegistration:      getEnvAsBool("AUTH_SELF_REGISTRATION", true),
		},
		SLA: SLAConfig{
			CriticalHours: getEnvAsInt("SLA_CRITICAL_HOURS", 4),
			HighHours:     getEnvAsInt("SLA_HIGH_HOURS", 24),
			MediumHours:   getEnvAsInt("SLA_MEDIUM_HOURS", 72),
			LowHours:      getEnvAsInt("SLA_LOW_HOURS", 168),
		},
		Escalation: EscalationConfig{
			PollIntervalSeconds: getEnvAsInt("ESCALATION_POLL_INTERVAL_SECONDS", 300),
			ThresholdHours:      getEnvAsInt("ESCALATION_THRESHOLD_HOURS", 72),
			MaxRetries:          getEnvAsInt("ESCALATION_MAX_RETRIES", 3),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configuration that violates core invariants.
func (c *Config) Validate() error {
	if err := c.SLA.Table().Validate(); err != nil {
		return apperrors.NewInvalidConfig(err.Error(), map[string]any{
			"critical_hours": c.SLA.CriticalHours,
			"high_hours":     c.SLA.HighHours,
			"medium_hours":   c.SLA.MediumHours,
			"low_hours":      c.SLA.LowHours,
		})
	}
	if c.Escalation.PollIntervalSeconds <= 0 {
		return apperrors.NewInvalidConfig("escalation poll interval must be positive", nil)
	}
	if c.Escalation.ThresholdHours <= 0 {
		return apperrors.NewInvalidConfig("escalation threshold must be positive", nil)
	}
	return nil
}

// Table converts the configured hours into an SLA table.
func (s SLAConfig) Table() domain.SLATable {
	return domain.SLATable{
		domain.PriorityCritical: time.Duration(s.CriticalHours) * time.Hour,
		domain.PriorityHigh:     time.Duration(s.HighHours) * time.Hour,
		domain.PriorityMedium:   time.Duration(s.MediumHours) * time.Hour,
		domain.PriorityLow:      time.Duration(s.LowHours) * time.Hour,
	}
}

// PollInterval returns the sweep cadence.
func (e EscalationConfig) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalSeconds) * time.Second
}

// Threshold returns the fallback breach window for records without a
// computed deadline.
func (e EscalationConfig) Threshold() time.Duration {
	return time.Duration(e.ThresholdHours) * time.Hour
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// StoreTimeout bounds individual store operations.
func (a AppConfig) StoreTimeout() time.Duration {
	if a.StoreTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.StoreTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
