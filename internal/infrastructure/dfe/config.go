package dfe

import (
	"errors"
	"time"

	"github.com/fiscalhub/backend/internal/infrastructure/resilience"
)

// Config holds the connection settings for the tax-document distribution
// service.
type Config struct {
	// BaseURL is the root endpoint of the distribution API.
	BaseURL string
	// APIKey authenticates the tenant's environment against the service.
	APIKey string
	// TimeoutSeconds is the per-attempt network timeout.
	TimeoutSeconds int
	// MaxRetries bounds the retry budget for each wrapped call.
	MaxRetries int
	// BaseDelay is the first retry delay.
	BaseDelay time.Duration
	// MaxDelay caps the backoff schedule.
	MaxDelay time.Duration
}

// Config validation errors
var (
	ErrMissingBaseURL = errors.New("dfe: base URL is required")
	ErrMissingAPIKey  = errors.New("dfe: API key is required")
)

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return nil
}

// retryOptions builds the resilience options for one wrapped call.
func (c *Config) retryOptions() resilience.Options {
	return resilience.Options{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
		MaxDelay:   c.MaxDelay,
		Multiplier: 2.0,
	}
}
