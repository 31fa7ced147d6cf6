package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/gobatch/component"
	"github.com/kbukum/gobatch/logger"
)

// Config toggles OTLP export of traces and metrics.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"min=0,max=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
}

// ApplyDefaults fills the development defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
}

// Component owns the tracer and meter providers for a process.
type Component struct {
	cfg         Config
	serviceName string
	environment string
	log         *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component. Start is a no-op when cfg.Enabled is false.
func NewComponent(cfg Config, serviceName, environment string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg:         cfg,
		serviceName: serviceName,
		environment: environment,
		log:         log.WithComponent("observability"),
	}
}

// Name implements component.Component.
func (c *Component) Name() string { return "observability" }

// Start installs the global providers.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	tp, err := InitTracer(ctx, &TracerConfig{
		ServiceName:    c.serviceName,
		ServiceVersion: c.cfg.ServiceVersion,
		Environment:    c.environment,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		SampleRate:     c.cfg.SampleRate,
	})
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName:    c.serviceName,
		ServiceVersion: c.cfg.ServiceVersion,
		Environment:    c.environment,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		Interval:       c.cfg.MetricInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.tp, c.mp = tp, mp

	c.log.Info("telemetry initialized", logger.Fields(
		"endpoint", c.cfg.Endpoint,
		"sample_rate", c.cfg.SampleRate,
	))
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	c.tp, c.mp = nil, nil
	return errors.Join(errs...)
}

// Health implements component.Component.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}

// Metrics builds a Recorder on the global meter provider.
func (c *Component) Metrics() (*Metrics, error) {
	return NewMetrics(Meter())
}
