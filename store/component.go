package store

import (
	"context"
	"fmt"

	"github.com/kbukum/gobatch/component"
	"github.com/kbukum/gobatch/logger"
)

// Component wraps Client and ResultStore for the component registry.
type Component struct {
	client *Client
	store  *ResultStore
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a result store component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("store")}
}

// Name returns the component name.
func (c *Component) Name() string { return "store" }

// Store returns the result store, or nil if not started.
func (c *Component) Store() *ResultStore { return c.store }

// Start connects to redis and verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("store start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("store start ping: %w", err)
	}
	c.client = client
	c.store = NewResultStore(client, c.cfg.KeyPrefix, c.cfg.Retention())
	c.log.Info("result store started")
	return nil
}

// Stop closes the redis connection.
func (c *Component) Stop(_ context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health pings redis.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.client == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "store not initialized"}
	}
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe summarises the connection.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Result store",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d ttl=%s", c.cfg.Addr, c.cfg.DB, c.cfg.TTL),
	}
}
