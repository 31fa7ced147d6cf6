package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/gobatch/component"
	"github.com/kbukum/gobatch/resilience"
)

// Component manages an Adapter's lifecycle. The adapter is built in Start.
type Component struct {
	adapter *Adapter
	config  Config
	opts    []Option
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates an adapter component.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

// Name implements component.Component.
func (c *Component) Name() string { return c.config.Name }

// Start builds the adapter.
func (c *Component) Start(context.Context) error {
	a, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.adapter = a
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(context.Context) error {
	if c.adapter != nil {
		c.adapter.Close()
	}
	return nil
}

// Health is unhealthy before Start and degraded while the circuit is open.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.adapter == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case c.adapter.BreakerState() == resilience.StateOpen:
		h.Status, h.Message = component.StatusDegraded, "circuit open"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-adapter",
		Details: fmt.Sprintf("%s timeout=%s", c.config.BaseURL, c.config.Timeout),
	}
}

// Adapter returns the adapter built by Start, or nil before.
func (c *Component) Adapter() *Adapter { return c.adapter }
