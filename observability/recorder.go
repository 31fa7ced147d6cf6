package observability

import (
	"context"
	"time"
)

// Outcome labels.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// Recorder receives batch and node measurements.
type Recorder interface {
	// RecordBatch records a finished batch; outcome is OutcomeSucceeded when a
	// result set was produced and OutcomeError otherwise.
	RecordBatch(ctx context.Context, outcome string, nodes int, d time.Duration)
	// RecordNode records one node result.
	RecordNode(ctx context.Context, method, outcome string, d time.Duration)
	// RecordError records a classified failure.
	RecordError(ctx context.Context, code, component string)
}

// Nop returns a Recorder that drops everything.
func Nop() Recorder { return nopRecorder{} }

type nopRecorder struct{}

func (nopRecorder) RecordBatch(context.Context, string, int, time.Duration)   {}
func (nopRecorder) RecordNode(context.Context, string, string, time.Duration) {}
func (nopRecorder) RecordError(context.Context, string, string)               {}

// Fanout returns a Recorder forwarding to every non-nil recorder in rs.
func Fanout(rs ...Recorder) Recorder {
	out := make(fanout, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type fanout []Recorder

func (f fanout) RecordBatch(ctx context.Context, outcome string, nodes int, d time.Duration) {
	for _, r := range f {
		r.RecordBatch(ctx, outcome, nodes, d)
	}
}

func (f fanout) RecordNode(ctx context.Context, method, outcome string, d time.Duration) {
	for _, r := range f {
		r.RecordNode(ctx, method, outcome, d)
	}
}

func (f fanout) RecordError(ctx context.Context, code, component string) {
	for _, r := range f {
		r.RecordError(ctx, code, component)
	}
}
