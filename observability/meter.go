package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OTLP metric exporter.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Interval is the export period; zero keeps the SDK default.
	Interval time.Duration
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
func InitMeter(ctx context.Context, cfg *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the gobatch meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics is a Recorder backed by OpenTelemetry instruments.
type Metrics struct {
	batchTotal    metric.Int64Counter
	batchDuration metric.Float64Histogram
	batchNodes    metric.Int64Histogram
	nodeTotal     metric.Int64Counter
	nodeDuration  metric.Float64Histogram
	errorTotal    metric.Int64Counter
}

var _ Recorder = (*Metrics)(nil)

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.batchTotal, err = meter.Int64Counter("gobatch.batch.total",
		metric.WithDescription("Batches submitted or executed")); err != nil {
		return nil, fmt.Errorf("creating gobatch.batch.total: %w", err)
	}
	if m.batchDuration, err = meter.Float64Histogram("gobatch.batch.duration",
		metric.WithDescription("Batch round-trip duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating gobatch.batch.duration: %w", err)
	}
	if m.batchNodes, err = meter.Int64Histogram("gobatch.batch.nodes",
		metric.WithDescription("Nodes per batch")); err != nil {
		return nil, fmt.Errorf("creating gobatch.batch.nodes: %w", err)
	}
	if m.nodeTotal, err = meter.Int64Counter("gobatch.node.total",
		metric.WithDescription("Node results by method and outcome")); err != nil {
		return nil, fmt.Errorf("creating gobatch.node.total: %w", err)
	}
	if m.nodeDuration, err = meter.Float64Histogram("gobatch.node.duration",
		metric.WithDescription("Node invocation duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating gobatch.node.duration: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("gobatch.error.total",
		metric.WithDescription("Errors by code and component")); err != nil {
		return nil, fmt.Errorf("creating gobatch.error.total: %w", err)
	}
	return &m, nil
}

// RecordBatch implements Recorder.
func (m *Metrics) RecordBatch(ctx context.Context, outcome string, nodes int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.batchTotal.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, d.Seconds(), attrs)
	m.batchNodes.Record(ctx, int64(nodes))
}

// RecordNode implements Recorder.
func (m *Metrics) RecordNode(ctx context.Context, method, outcome string, d time.Duration) {
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
	m.nodeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("method", method)))
}

// RecordError implements Recorder.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
