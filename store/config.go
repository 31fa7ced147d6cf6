package store

import (
	"fmt"
	"time"
)

// Config holds the redis connection and retention settings of the result store.
type Config struct {
	// Enabled controls whether batch results are persisted.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Password is the redis server password.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the redis database number.
	DB int `yaml:"db" mapstructure:"db"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// MaxRetries is the number of command retries before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// DialTimeout is the timeout for establishing new connections (e.g. "5s").
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads (e.g. "3s").
	ReadTimeout string `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout is the timeout for socket writes (e.g. "3s").
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// KeyPrefix namespaces every key written by the store.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// TTL is how long a stored batch is kept (e.g. "24h"). "0" keeps it forever.
	TTL string `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "gobatch"
	}
	if c.TTL == "" {
		c.TTL = "24h"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("store addr is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be > 0")
	}
	for name, v := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"ttl":           c.TTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

// Retention returns the parsed TTL.
func (c *Config) Retention() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}
