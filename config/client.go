package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/gobatch/httpclient"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/store"
	"github.com/kbukum/gobatch/validation"
)

// Default values for ClientConfig.
const (
	DefaultBatchPath     = "/batch"
	DefaultTimeout       = 30 * time.Second
	RequestedWithHeader  = "X-Requested-With"
	RequestedWithDefault = "XmlHttpRequest"
)

// ClientConfig configures a batch client process.
//
//	name: batchcall
//	client:
//	  base_url: https://pi.example.com/piwebapi
//	  timeout: 20s
//	  auth:
//	    type: basic
//	    username: reader
//	store:
//	  enabled: true
//	  addr: localhost:6379
type ClientConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client        EndpointConfig       `yaml:"client" mapstructure:"client"`
	Store         store.Config         `yaml:"store" mapstructure:"store"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// EndpointConfig describes the remote batch endpoint.
type EndpointConfig struct {
	// BaseURL is the root of the remote API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	// BatchPath is appended to BaseURL for the batch call.
	BatchPath string `yaml:"batch_path" mapstructure:"batch_path" validate:"startswith=/"`
	// Timeout bounds the single batch round trip.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// Auth is attached to the batch request.
	Auth httpclient.AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Headers are sent with the batch request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// MaxParallel bounds concurrent nodes when a graph is executed locally.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	// CircuitBreaker guards the endpoint with a breaker.
	CircuitBreaker bool `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// Retry retries the batch call on transport failures. Off by default.
	Retry bool `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults applies default values.
func (c *ClientConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "batchcall"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Client.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *ClientConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config.store: %w", err)
	}
	if err := validation.Validate(c.Observability); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values.
func (c *EndpointConfig) ApplyDefaults() {
	if c.BatchPath == "" {
		c.BatchPath = DefaultBatchPath
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Auth.Type == "" {
		c.Auth.Type = httpclient.AuthNone
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	for k := range c.Headers {
		if strings.EqualFold(k, RequestedWithHeader) {
			return
		}
	}
	c.Headers[RequestedWithHeader] = RequestedWithDefault
}

// Validate checks the endpoint settings.
func (c *EndpointConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config.client: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("config.client.auth: %w", err)
	}
	return nil
}

// BatchURL returns the absolute URL of the batch endpoint.
func (c *EndpointConfig) BatchURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.BatchPath
}

// HTTPConfig maps the endpoint settings onto an httpclient configuration.
func (c *EndpointConfig) HTTPConfig() httpclient.Config {
	auth := c.Auth
	cfg := httpclient.Config{
		Name:    "batch-endpoint",
		BaseURL: strings.TrimRight(c.BaseURL, "/"),
		Timeout: c.Timeout,
		Auth:    &auth,
		Headers: c.Headers,
	}
	if c.Retry {
		cfg.Retry = httpclient.DefaultRetryConfig()
	}
	if c.CircuitBreaker {
		cfg.CircuitBreaker = httpclient.DefaultCircuitBreakerConfig(cfg.Name)
	}
	return cfg
}
