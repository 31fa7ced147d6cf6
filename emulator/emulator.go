package emulator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/gobatch/component"
	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/resilience"
	"github.com/kbukum/gobatch/server"
	"github.com/kbukum/gobatch/server/endpoint"
)

const componentName = "emulator"

var (
	_ component.Component   = (*Emulator)(nil)
	_ component.Describable = (*Emulator)(nil)
)

// Emulator serves the batch endpoint over HTTP.
type Emulator struct {
	cfg       Config
	srv       *server.Server
	exec      *dag.Executor
	invoke    dag.Invoker
	bulkhead  *resilience.Bulkhead
	log       *logger.Logger
	rec       observability.Recorder
	collector *observability.Collector
	registry  *prometheus.Registry
	checker   endpoint.HealthChecker
	service   string
}

// Option configures an Emulator.
type Option func(*Emulator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Emulator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder adds a recorder next to the built-in Prometheus collector,
// e.g. the OTLP meter.
func WithRecorder(r observability.Recorder) Option {
	return func(e *Emulator) {
		if r != nil {
			e.rec = observability.Fanout(e.rec, r)
		}
	}
}

// WithRegistry registers the Prometheus collector on reg instead of a
// private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(e *Emulator) { e.registry = reg }
}

// WithHealthChecker adds component states to /health.
func WithHealthChecker(c endpoint.HealthChecker) Option {
	return func(e *Emulator) { e.checker = c }
}

// WithServiceName sets the service name reported by /health.
func WithServiceName(name string) Option {
	return func(e *Emulator) { e.service = name }
}

// New builds an emulator whose nodes are served by ops.
func New(cfg Config, ops http.Handler, opts ...Option) (*Emulator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ops == nil {
		return nil, fmt.Errorf("emulator: operations handler is required")
	}

	e := &Emulator{
		cfg:     cfg,
		log:     logger.Nop(),
		rec:     observability.Nop(),
		service: componentName,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = prometheus.NewRegistry()
	}
	e.collector = observability.NewCollector(e.registry)
	e.rec = observability.Fanout(e.collector, e.rec)
	e.log = e.log.WithComponent(componentName)

	e.exec = &dag.Executor{MaxParallel: cfg.MaxParallel, Log: e.log}
	e.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          componentName,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.maxWait(),
		OnReject:      func(string) { e.collector.BatchRejected() },
	})

	inv := HandlerInvoker(ops)
	if !cfg.StrictContent {
		inv = WithLenientContent(inv)
	}
	inv = WithTimeout(inv, cfg.nodeTimeout())
	inv = dag.WithLogging(inv, e.log)
	inv = dag.WithMetrics(inv, e.rec)
	e.invoke = dag.WithTracing(inv)

	e.srv = server.New(cfg.Server, e.log)
	e.srv.ApplyDefaults(e.service, e.health, endpoint.PrometheusHandler(e.registry))
	e.srv.GinEngine().POST(cfg.BatchPath, e.handleBatch)
	return e, nil
}

// Handler returns the root HTTP handler, for httptest servers.
func (e *Emulator) Handler() http.Handler { return e.srv.Handler() }

// Addr returns the listen address.
func (e *Emulator) Addr() string { return e.srv.Addr() }

// BatchURL returns the URL the envelope must be posted to once started.
func (e *Emulator) BatchURL() string {
	return "http://" + e.srv.Addr() + e.cfg.BatchPath
}

// Name implements component.Component.
func (e *Emulator) Name() string { return componentName }

// Start binds the listener and begins serving.
func (e *Emulator) Start(ctx context.Context) error { return e.srv.Start(ctx) }

// Stop shuts the server down.
func (e *Emulator) Stop(ctx context.Context) error { return e.srv.Stop(ctx) }

// Health reports degraded while every batch slot is in use.
func (e *Emulator) Health(ctx context.Context) component.Health {
	h := server.NewComponent(e.srv).Health(ctx)
	h.Name = componentName
	if h.Status == component.StatusHealthy && e.bulkhead.InUse() >= e.bulkhead.MaxConcurrent() {
		h.Status = component.StatusDegraded
		h.Message = "all batch slots in use"
	}
	return h
}

// Describe implements component.Describable.
func (e *Emulator) Describe() component.Description {
	return component.Description{
		Name: "Batch Emulator",
		Type: "server",
		Details: fmt.Sprintf("%s%s max_concurrent=%d max_parallel=%d",
			e.srv.Addr(), e.cfg.BatchPath, e.cfg.MaxConcurrent, e.cfg.MaxParallel),
	}
}

func (e *Emulator) health(ctx context.Context) []component.Health {
	var out []component.Health
	if e.checker != nil {
		out = e.checker(ctx)
	}
	if e.bulkhead.InUse() >= e.bulkhead.MaxConcurrent() {
		out = append(out, component.Health{
			Name:    componentName,
			Status:  component.StatusDegraded,
			Message: "all batch slots in use",
		})
	}
	return out
}
