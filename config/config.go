package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dojo-hub/internal/domain"
)

// MinBackendSecretLength is the minimum size of the bridge token signing key.
const MinBackendSecretLength = 32

// Config holds the application configuration
type Config struct {
	Port                string        // Service port
	KratosURL           string        // Kratos internal URL (Frontend API - port 4433)
	ProfileServiceURL   string        // Base URL of the profile service
	ProfileCacheTTL     time.Duration // Profile cache TTL
	ProfileFetchTimeout time.Duration // Bound on one profile load
	BackendTokenSecret  string        // Secret for signing bridge tokens
	BackendTokenTTL     time.Duration // Bridge token TTL
	CSRFSecret          string        // CSRF secret for token generation
	AuthSharedSecret    string        // Shared secret for internal routes
	DatabaseURL         string        // Credential store; credential routes are off when empty
	RedisURL            string        // Cross-replica invalidation; off when empty
	InvalidationChannel string        // Redis channel for invalidations
	ResendAPIKey        string        // Mail is logged instead of sent when empty
	MailFrom            string        // Sender address for credential mail
	AppURL              string        // Public base URL used in mailed links
	DeploymentEnv       string        // development, staging or production
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Port:                getEnv("PORT", "8888"),
		KratosURL:           getEnv("KRATOS_URL", "http://kratos:4433"),
		ProfileServiceURL:   getEnv("PROFILE_SERVICE_URL", "http://profile-service:8080"),
		BackendTokenSecret:  getEnv("BACKEND_TOKEN_SECRET", ""),
		CSRFSecret:          getEnv("CSRF_SECRET", ""),
		AuthSharedSecret:    getEnv("AUTH_SHARED_SECRET", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		InvalidationChannel: getEnv("INVALIDATION_CHANNEL", "dojo-hub:profile-invalidations"),
		ResendAPIKey:        getEnv("RESEND_API_KEY", ""),
		MailFrom:            getEnv("MAIL_FROM", "noreply@dojo.local"),
		AppURL:              getEnv("APP_URL", "http://localhost:3000"),
		DeploymentEnv:       getEnv("DEPLOYMENT_ENV", "development"),
	}

	var err error
	if config.ProfileCacheTTL, err = getDuration("PROFILE_CACHE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if config.ProfileFetchTimeout, err = getDuration("PROFILE_FETCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if config.BackendTokenTTL, err = getDuration("BACKEND_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid. All errors wrap
// domain.ErrConfiguration.
func (c *Config) Validate() error {
	if c.KratosURL == "" {
		return fmt.Errorf("%w: KRATOS_URL cannot be empty", domain.ErrConfiguration)
	}

	if c.ProfileServiceURL == "" {
		return fmt.Errorf("%w: PROFILE_SERVICE_URL cannot be empty", domain.ErrConfiguration)
	}

	if c.Port == "" {
		return fmt.Errorf("%w: PORT cannot be empty", domain.ErrConfiguration)
	}

	if c.BackendTokenSecret == "" {
		return fmt.Errorf("%w: BACKEND_TOKEN_SECRET is required", domain.ErrConfiguration)
	}
	if len(c.BackendTokenSecret) < MinBackendSecretLength {
		return fmt.Errorf("%w: %w: BACKEND_TOKEN_SECRET must be at least %d bytes",
			domain.ErrConfiguration, domain.ErrBackendSecretWeak, MinBackendSecretLength)
	}

	if c.ProfileCacheTTL <= 0 {
		return fmt.Errorf("%w: PROFILE_CACHE_TTL must be positive", domain.ErrConfiguration)
	}
	if c.ProfileFetchTimeout <= 0 {
		return fmt.Errorf("%w: PROFILE_FETCH_TIMEOUT must be positive", domain.ErrConfiguration)
	}
	if c.BackendTokenTTL <= 0 {
		return fmt.Errorf("%w: BACKEND_TOKEN_TTL must be positive", domain.ErrConfiguration)
	}

	if c.IsProduction() {
		if c.CSRFSecret == "" {
			return fmt.Errorf("%w: CSRF_SECRET is required in production", domain.ErrConfiguration)
		}
		if c.AuthSharedSecret == "" {
			return fmt.Errorf("%w: AUTH_SHARED_SECRET is required in production", domain.ErrConfiguration)
		}
		if c.DatabaseURL != "" && c.ResendAPIKey == "" {
			return fmt.Errorf("%w: RESEND_API_KEY is required in production when DATABASE_URL is set", domain.ErrConfiguration)
		}
	}

	return nil
}

// IsProduction reports whether DEPLOYMENT_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.DeploymentEnv, "production")
}

// IsDevelopment reports whether DEPLOYMENT_ENV is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.DeploymentEnv, "development")
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s format: %w", domain.ErrConfiguration, key, err)
	}
	return d, nil
}
