package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/gobatch/resilience"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP adapter.
type Config struct {
	// Name identifies the adapter in logs and component listings.
	Name string `yaml:"name" mapstructure:"name"`
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds a whole request including the body read. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Auth is applied to every request unless the request carries its own.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Headers are sent with every request; request headers win on conflict.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// Retry enables retries of retryable failures. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
	// CircuitBreaker guards the endpoint. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = "httpclient"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultRetryConfig returns a retry config that only retries classified
// retryable failures (timeouts, connection errors, 429 and 5xx).
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns the default breaker for the named endpoint.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}
