package emulator

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/gobatch/server"
)

// DefaultBatchPath is the route the envelope is posted to.
const DefaultBatchPath = "/batch"

// Config configures the emulated batch endpoint.
type Config struct {
	Server server.Config `yaml:"server" mapstructure:"server"`

	// BatchPath is the route that accepts envelopes.
	BatchPath string `yaml:"batch_path" mapstructure:"batch_path"`

	// MaxConcurrent caps batches executing at once; extra batches get 503.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// MaxWait is how long a batch may queue for a slot (e.g. "250ms"). Empty rejects at once.
	MaxWait string `yaml:"max_wait" mapstructure:"max_wait"`

	// MaxParallel bounds concurrent node invocations within one batch (0 = unbounded).
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel"`

	// NodeTimeout bounds a single node invocation (e.g. "10s"). Empty means no limit.
	NodeTimeout string `yaml:"node_timeout" mapstructure:"node_timeout"`

	// StrictContent disables repair of non-JSON Content bodies such as {'Value': 1}.
	StrictContent bool `yaml:"strict_content" mapstructure:"strict_content"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	if c.BatchPath == "" {
		c.BatchPath = DefaultBatchPath
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 16
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.BatchPath, "/") {
		return fmt.Errorf("emulator.batch_path must start with '/' (got: %q)", c.BatchPath)
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("emulator.max_parallel must be non-negative (got: %d)", c.MaxParallel)
	}
	if _, err := parseDuration("max_wait", c.MaxWait); err != nil {
		return err
	}
	if _, err := parseDuration("node_timeout", c.NodeTimeout); err != nil {
		return err
	}
	return nil
}

func (c *Config) maxWait() time.Duration {
	d, _ := parseDuration("max_wait", c.MaxWait)
	return d
}

func (c *Config) nodeTimeout() time.Duration {
	d, _ := parseDuration("node_timeout", c.NodeTimeout)
	return d
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("emulator.%s: invalid duration %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("emulator.%s must be non-negative (got: %s)", field, s)
	}
	return d, nil
}
