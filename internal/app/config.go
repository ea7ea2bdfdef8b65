package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"10m"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"10m"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000,http://localhost:8080"`

	RegistryAPIKey       string        `envconfig:"REGISTRY_API_KEY" required:"true"`
	RegistryBaseURL      string        `envconfig:"REGISTRY_BASE_URL" default:"https://api.company-information.service.gov.uk"`
	RegistryPageSize     int           `envconfig:"REGISTRY_PAGE_SIZE" default:"500"`
	RegistryRateLimit    int           `envconfig:"REGISTRY_RATE_LIMIT" default:"600"`
	RegistryRateWindow   time.Duration `envconfig:"REGISTRY_RATE_WINDOW" default:"5m"`
	RegistryMaxAttempts  int           `envconfig:"REGISTRY_MAX_ATTEMPTS" default:"3"`
	RegistryRetryBackoff time.Duration `envconfig:"REGISTRY_RETRY_BACKOFF" default:"5s"`
	RegistryRateBackoff  time.Duration `envconfig:"REGISTRY_RATE_BACKOFF" default:"60s"`
	RegistryTimeout      time.Duration `envconfig:"REGISTRY_TIMEOUT" default:"30s"`

	MaxResults        int `envconfig:"MAX_RESULTS" default:"10000"`
	EnrichConcurrency int `envconfig:"ENRICH_CONCURRENCY" default:"5"`
	EnrichMaxNames    int `envconfig:"ENRICH_MAX_NAMES" default:"10"`

	LLMBaseURL string `envconfig:"LLM_BASE_URL"`
	LLMAPIKey  string `envconfig:"LLM_API_KEY"`
	LLMModel   string `envconfig:"LLM_MODEL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.RegistryAPIKey == "" {
		return nil, errors.New("registry API key must be provided")
	}
	if cfg.MaxResults <= 0 {
		return nil, errors.New("max results must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
