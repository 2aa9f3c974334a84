package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Environment
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis
	RedisURL string `env:"REDIS_URL,required"`

	// JWT Configuration
	JWTHS256Secret      string `env:"JWT_HS256_SECRET,required"`    // Base64-encoded HMAC secret
	JWTAllowedIssuers   string `env:"JWT_ALLOWED_ISSUERS,required"` // CSV list of allowed issuers (e.g., "fleetdesk-web,fleetdesk-mobile")
	JWTAudience         string `env:"JWT_AUDIENCE,required"`        // Expected JWT audience
	JWTClockSkewSeconds int    `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"60"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"true"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"fleetdesk-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`

	// Server
	Port string `env:"PORT" envDefault:"3002"`

	// Rate Limiting
	RateLimitPerOrgPerMin int `env:"RATE_LIMIT_PER_ORG_PER_MIN" envDefault:"100"`

	// Authorization
	DecisionCacheSize int `env:"DECISION_CACHE_SIZE" envDefault:"4096"`

	// Webhooks
	WebhookURL            string `env:"WEBHOOK_URL"` // Optional: work-order status change notifications
	WebhookTimeoutSeconds int    `env:"WEBHOOK_TIMEOUT_SECONDS" envDefault:"5"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWTHS256Secret == "" {
		return fmt.Errorf("JWT_HS256_SECRET is required")
	}

	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}

	if len(c.GetAllowedIssuers()) == 0 {
		return fmt.Errorf("JWT_ALLOWED_ISSUERS must contain at least one valid issuer")
	}

	if c.JWTClockSkewSeconds < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW_SECONDS must be non-negative")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	if c.RateLimitPerOrgPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_ORG_PER_MIN must be positive")
	}

	if c.DecisionCacheSize <= 0 {
		return fmt.Errorf("DECISION_CACHE_SIZE must be positive")
	}

	if c.WebhookTimeoutSeconds <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT_SECONDS must be positive")
	}

	return nil
}

// IsProduction reports whether the app runs with the production profile.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetAllowedIssuers returns the list of allowed JWT issuers
func (c *Config) GetAllowedIssuers() []string {
	issuers := strings.Split(c.JWTAllowedIssuers, ",")
	result := make([]string, 0, len(issuers))
	for _, issuer := range issuers {
		trimmed := strings.TrimSpace(issuer)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
