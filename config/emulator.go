package config

import (
	"fmt"

	"github.com/kbukum/gobatch/emulator"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/validation"
)

// EmulatorConfig configures the batch endpoint emulator process.
//
//	name: batchemu
//	emulator:
//	  server:
//	    port: 8089
//	  max_concurrent: 8
//	  node_timeout: 10s
type EmulatorConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Emulator      emulator.Config      `yaml:"emulator" mapstructure:"emulator"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies default values.
func (c *EmulatorConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "batchemu"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Emulator.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *EmulatorConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Emulator.Validate(); err != nil {
		return fmt.Errorf("config.emulator: %w", err)
	}
	if err := validation.Validate(c.Observability); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}
