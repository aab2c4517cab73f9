package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable for local development.
const DefaultJWTSecret = "fallback-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	Scheduler    SchedulerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigin            string
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	AppName        string
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
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds SMTP and delivery settings.
type NotificationConfig struct {
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ClientURL    string
	UseQueue     bool
	QueueKey     string
	MaxAttempts  int
	RetryBackoff time.Duration
	SendTimeout  time.Duration
}

// CacheConfig controls the tour detail cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RateLimitConfig bounds public auth endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	CampaignSchedule string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tourism-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "1.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigin:            getEnv("CORS_ORIGIN", "http://localhost:3000"),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			AppName:        getEnv("POSTGRES_APPLICATION_NAME", "tourism-service"),
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", DefaultJWTSecret),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 7*24*60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("EMAIL_FROM", "noreply@eternityafrica.example"),
			SMTPHost:     os.Getenv("EMAIL_HOST"),
			SMTPPort:     getEnvAsInt("EMAIL_PORT", 587),
			SMTPUser:     os.Getenv("EMAIL_USER"),
			SMTPPassword: os.Getenv("EMAIL_PASS"),
			ClientURL:    strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3000"), "/"),
			UseQueue:     getEnvAsBool("NOTIFY_USE_QUEUE", true),
			QueueKey:     getEnv("NOTIFY_QUEUE_KEY", "notifications:email"),
			MaxAttempts:  getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
			RetryBackoff: time.Duration(getEnvAsInt("NOTIFY_RETRY_BACKOFF_SECONDS", 30)) * time.Second,
			SendTimeout:  time.Duration(getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Cache: CacheConfig{
			Enabled: getEnvAsBool("CACHE_ENABLED", true),
			TTL:     time.Duration(getEnvAsInt("CACHE_TOUR_TTL_SECONDS", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Scheduler: SchedulerConfig{
			CampaignSchedule: getEnv("CAMPAIGN_SCHEDULE", "@every 1m"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether internal error details may be exposed.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued bearer tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// UsesDefaultSecret reports whether the insecure fallback secret is active.
func (a AuthConfig) UsesDefaultSecret() bool {
	return a.JWTSecret == DefaultJWTSecret
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
