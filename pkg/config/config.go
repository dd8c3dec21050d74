package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Places    PlacesConfig
	OpenAI    OpenAIConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
	OTEL      OTELConfig
	Log       LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// PlacesConfig holds places provider configuration
type PlacesConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
}

// PipelineConfig holds the per-call budgets of the ranking pipeline.
type PipelineConfig struct {
	RequestTimeout   time.Duration
	SearchTimeout    time.Duration
	DetailTimeout    time.Duration
	ScoringTimeout   time.Duration
	DetailMinSuccess int
	RetryAttempts    int
}

// RateLimitConfig holds per-client request limits for the ranking endpoint.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables, layered over the
// optional YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile loads configuration from path (skipped when empty) and then applies
// environment variables, which take precedence.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	s := source{k: k}

	return &Config{
		Server: ServerConfig{
			Host:           s.str("SERVER_HOST", "server.host", "0.0.0.0"),
			Port:           s.int("SERVER_PORT", "server.port", 8080),
			AllowedOrigins: s.str("ALLOWED_ORIGINS", "server.allowed_origins", "*"),
		},
		Redis: RedisConfig{
			Enabled:  s.bool("REDIS_ENABLED", "redis.enabled", true),
			Host:     s.str("REDIS_HOST", "redis.host", "localhost"),
			Port:     s.int("REDIS_PORT", "redis.port", 6379),
			Password: s.str("REDIS_PASSWORD", "redis.password", ""),
			DB:       s.int("REDIS_DB", "redis.db", 0),
		},
		Places: PlacesConfig{
			Provider: s.str("PLACES_PROVIDER", "places.provider", "google"),
			APIKey:   s.str("GOOGLE_MAPS_API_KEY", "places.api_key", ""),
			BaseURL:  s.str("PLACES_BASE_URL", "places.base_url", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         s.str("OPENAI_API_KEY", "openai.api_key", ""),
			Model:          s.str("OPENAI_MODEL", "openai.model", "gpt-4o"),
			BaseURL:        s.str("OPENAI_BASE_URL", "openai.base_url", ""),
			RateLimitRPM:   s.int("OPENAI_RATE_LIMIT_RPM", "openai.rate_limit_rpm", 60),
			RateLimitBurst: s.int("OPENAI_RATE_LIMIT_BURST", "openai.rate_limit_burst", 5),
		},
		Pipeline: PipelineConfig{
			RequestTimeout:   s.duration("PIPELINE_REQUEST_TIMEOUT", "pipeline.request_timeout", 90*time.Second),
			SearchTimeout:    s.duration("PIPELINE_SEARCH_TIMEOUT", "pipeline.search_timeout", 8*time.Second),
			DetailTimeout:    s.duration("PIPELINE_DETAIL_TIMEOUT", "pipeline.detail_timeout", 8*time.Second),
			ScoringTimeout:   s.duration("PIPELINE_SCORING_TIMEOUT", "pipeline.scoring_timeout", 60*time.Second),
			DetailMinSuccess: s.int("DETAIL_MIN_SUCCESS", "pipeline.detail_min_success", 3),
			RetryAttempts:    s.int("PIPELINE_RETRY_ATTEMPTS", "pipeline.retry_attempts", 3),
		},
		RateLimit: RateLimitConfig{
			Enabled:  s.bool("RATE_LIMIT_ENABLED", "rate_limit.enabled", true),
			Requests: s.int("RATE_LIMIT_REQUESTS", "rate_limit.requests", 30),
			Window:   s.duration("RATE_LIMIT_WINDOW", "rate_limit.window", time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    s.str("OTEL_SERVICE_NAME", "otel.service_name", "nearby-dining"),
			ServiceVersion: s.str("OTEL_SERVICE_VERSION", "otel.service_version", "1.0.0"),
			Endpoint:       s.str("OTEL_ENDPOINT", "otel.endpoint", ""),
			Enabled:        s.bool("OTEL_ENABLED", "otel.enabled", false),
		},
		Log: LogConfig{
			Env:   s.str("APP_ENV", "log.env", "production"),
			Level: s.str("LOG_LEVEL", "log.level", "info"),
		},
	}, nil
}

// Validate reports every missing or out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.Places.Provider == "google" && c.Places.APIKey == "" {
		errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required when PLACES_PROVIDER=google"))
	}
	if c.Places.Provider != "google" && c.Places.Provider != "mock" {
		errs = append(errs, fmt.Errorf("PLACES_PROVIDER must be google or mock, got %q", c.Places.Provider))
	}
	if c.Pipeline.DetailMinSuccess < 1 {
		errs = append(errs, errors.New("DETAIL_MIN_SUCCESS must be at least 1"))
	}
	if c.Pipeline.RequestTimeout <= 0 || c.Pipeline.SearchTimeout <= 0 || c.Pipeline.DetailTimeout <= 0 || c.Pipeline.ScoringTimeout <= 0 {
		errs = append(errs, errors.New("pipeline timeouts must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// source resolves a setting from the environment first, then the config file,
// then the default.
type source struct {
	k *koanf.Koanf
}

func (s source) str(envKey, fileKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if s.k.Exists(fileKey) {
		return s.k.String(fileKey)
	}
	return defaultValue
}

func (s source) int(envKey, fileKey string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	if s.k.Exists(fileKey) {
		return s.k.Int(fileKey)
	}
	return defaultValue
}

func (s source) bool(envKey, fileKey string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	if s.k.Exists(fileKey) {
		return s.k.Bool(fileKey)
	}
	return defaultValue
}

func (s source) duration(envKey, fileKey string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envKey); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	if s.k.Exists(fileKey) {
		return s.k.Duration(fileKey)
	}
	return defaultValue
}
