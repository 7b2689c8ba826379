package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/campaign-canvas-backend/internal/data/db"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/execution"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/observability"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/envutil"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

const (
	EnvDevelopment    = "development"
	defaultPort       = "8080"
	defaultGemini     = "gemini-2.0-flash"
	defaultRedisTopic = "campaign-canvas:sse"
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	Version     string
	FrontendURL string

	DB db.Config

	JWTSecret   string
	JWTAudience string

	GoogleAPIKey  string
	GeminiModel   string
	GeminiRetries int
	SerperAPIKey  string
	SerperGL      string
	ImageBaseURL  string
	ImagePrefetch bool
	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	WorkerConcurrency       int
	WorkerPollInterval      time.Duration
	WorkerMaxAttempts       int
	ExecutionDayConcurrency int
	ModifyConcurrency       int
	InfluencerCount         int

	Otel observability.OtelConfig
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() Config {
	_ = godotenv.Load()

	env := envutil.String("ENVIRONMENT", EnvDevelopment)
	return Config{
		Port:        envutil.String("PORT", defaultPort),
		LogMode:     envutil.String("LOG_MODE", EnvDevelopment),
		Environment: env,
		Version:     envutil.String("APP_VERSION", "dev"),
		FrontendURL: envutil.String("FRONTEND_URL", ""),

		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "campaign_canvas"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "campaign_canvas.db"),
		},

		JWTSecret:   envutil.String("JWT_SECRET", ""),
		JWTAudience: envutil.String("JWT_AUDIENCE", services.DefaultAudience),

		GoogleAPIKey:  envutil.String("GOOGLE_API_KEY", ""),
		GeminiModel:   envutil.String("GEMINI_MODEL", defaultGemini),
		GeminiRetries: envutil.Int("GEMINI_MAX_RETRIES", 3),
		SerperAPIKey:  envutil.String("SERPER_API_KEY", ""),
		SerperGL:      envutil.String("SERPER_GL", ""),
		ImageBaseURL:  envutil.String("IMAGE_BASE_URL", ""),
		ImagePrefetch: envutil.Bool("IMAGE_PREFETCH", true),
		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisChannel:  envutil.String("REDIS_CHANNEL", defaultRedisTopic),

		WorkerConcurrency:       envutil.Int("WORKER_CONCURRENCY", 4),
		WorkerPollInterval:      envutil.Seconds("WORKER_POLL_SECONDS", time.Second),
		WorkerMaxAttempts:       envutil.Int("WORKER_MAX_ATTEMPTS", 3),
		ExecutionDayConcurrency: envutil.Int("EXECUTION_DAY_CONCURRENCY", execution.DefaultDayConcurrency),
		ModifyConcurrency:       envutil.Int("MODIFY_CONCURRENCY", 4),
		InfluencerCount:         envutil.Int("INFLUENCER_COUNT", generators.DefaultInfluencerCount),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", observability.DefaultServiceName),
			Environment: env,
			Version:     envutil.String("APP_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.List("OTEL_EXPORTER_OTLP_HEADERS"),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvDevelopment)
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.GoogleAPIKey == "" {
		errs = append(errs, errors.New("GOOGLE_API_KEY is required"))
	}
	switch strings.ToLower(c.DB.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	return errors.Join(errs...)
}
