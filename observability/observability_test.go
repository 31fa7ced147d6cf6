package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetrics_RecordNode(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	m.RecordNode(ctx, "GET", OutcomeSucceeded, 10*time.Millisecond)
	m.RecordNode(ctx, "GET", OutcomeSucceeded, 20*time.Millisecond)
	m.RecordBatch(ctx, OutcomeSucceeded, 2, 50*time.Millisecond)
	m.RecordError(ctx, "TRANSPORT_ERROR", "transport")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "gobatch.node.total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 {
				t.Fatalf("unexpected data %T", md.Data)
			}
			total = sum.DataPoints[0].Value
		}
	}
	if total != 2 {
		t.Errorf("expected gobatch.node.total=2, got %d", total)
	}
}

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	ctx := context.Background()

	c.RecordBatch(ctx, OutcomeSucceeded, 3, time.Second)
	c.RecordNode(ctx, "POST", OutcomeFailed, time.Millisecond)
	c.RecordError(ctx, "MISSING_NODE_RESULT", "demux")
	c.BatchStarted()
	c.BatchStarted()
	c.BatchFinished()
	c.BatchRejected()

	if got := testutil.ToFloat64(c.batchesTotal.WithLabelValues(OutcomeSucceeded)); got != 1 {
		t.Errorf("expected 1 batch, got %v", got)
	}
	if got := testutil.ToFloat64(c.nodesTotal.WithLabelValues("POST", OutcomeFailed)); got != 1 {
		t.Errorf("expected 1 failed POST, got %v", got)
	}
	if got := testutil.ToFloat64(c.batchesActive); got != 1 {
		t.Errorf("expected 1 active batch, got %v", got)
	}
	if got := testutil.ToFloat64(c.rejectionTotal); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
}

func TestCollector_SeparateRegistries(t *testing.T) {
	NewCollector(prometheus.NewRegistry())
	NewCollector(prometheus.NewRegistry())
}

type countingRecorder struct{ batches, nodes, errs int }

func (c *countingRecorder) RecordBatch(context.Context, string, int, time.Duration)   { c.batches++ }
func (c *countingRecorder) RecordNode(context.Context, string, string, time.Duration) { c.nodes++ }
func (c *countingRecorder) RecordError(context.Context, string, string)               { c.errs++ }

func TestFanout(t *testing.T) {
	a, b := &countingRecorder{}, &countingRecorder{}
	r := Fanout(a, nil, b, Nop())
	ctx := context.Background()
	r.RecordBatch(ctx, OutcomeError, 0, 0)
	r.RecordNode(ctx, "GET", OutcomeSkipped, 0)
	r.RecordError(ctx, "X", "y")

	for _, c := range []*countingRecorder{a, b} {
		if c.batches != 1 || c.nodes != 1 || c.errs != 1 {
			t.Errorf("expected one call each, got %+v", c)
		}
	}
}

func TestSpanHelpers(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanBatchSubmit)
	SetSpanAttribute(ctx, AttrBatchID, "b-1")
	SetSpanAttribute(ctx, AttrNodeCount, 3)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != SpanBatchSubmit {
		t.Errorf("expected span %s, got %s", SpanBatchSubmit, s.Name)
	}
	if s.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status.Code)
	}
	if len(s.Attributes) != 2 {
		t.Errorf("expected 2 attributes, got %v", s.Attributes)
	}
}

func TestSpanHelpers_NoRecordingSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, errors.New("no span"))
}

func TestComponent_Disabled(t *testing.T) {
	c := NewComponent(Config{}, "batchcall", "test", nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Describe().Details != "disabled" {
		t.Errorf("expected disabled description, got %q", c.Describe().Details)
	}
	if c.cfg.Endpoint != "localhost:4318" || c.cfg.SampleRate != 1.0 {
		t.Errorf("defaults not applied: %+v", c.cfg)
	}
}

func TestSampler(t *testing.T) {
	if sampler(1).Description() != sdktrace.AlwaysSample().Description() {
		t.Error("rate 1 should always sample")
	}
	if sampler(0).Description() != sdktrace.NeverSample().Description() {
		t.Error("rate 0 should never sample")
	}
}
