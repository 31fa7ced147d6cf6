package dag

import (
	"context"
	"time"

	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/observability"
)

// WithTracing wraps an Invoker with a span per node.
func WithTracing(inv Invoker) Invoker {
	return func(ctx context.Context, node Node, resource, content string) *NodeResult {
		ctx, span := observability.StartSpan(ctx, observability.SpanNodeInvoke)
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrNodeID, string(node.ID))
		observability.SetSpanAttribute(ctx, observability.AttrMethod, node.Method)
		observability.SetSpanAttribute(ctx, observability.AttrResource, resource)

		r := inv(ctx, node, resource, content)
		if r != nil {
			observability.SetSpanAttribute(ctx, observability.AttrStatus, r.Status())
			observability.SetSpanAttribute(ctx, observability.AttrOutcome, string(r.Outcome()))
			if r.Err() != nil {
				observability.SetSpanError(ctx, r.Err())
			}
		}
		return r
	}
}

// WithMetrics wraps an Invoker with per-node measurements.
func WithMetrics(inv Invoker, rec observability.Recorder) Invoker {
	return func(ctx context.Context, node Node, resource, content string) *NodeResult {
		start := time.Now()
		r := inv(ctx, node, resource, content)
		outcome := observability.OutcomeFailed
		if r != nil {
			outcome = string(r.Outcome())
		}
		rec.RecordNode(ctx, node.Method, outcome, time.Since(start))
		return r
	}
}

// WithLogging wraps an Invoker with a debug line per node and a warning for
// non-2xx results.
func WithLogging(inv Invoker, log *logger.Logger) Invoker {
	return func(ctx context.Context, node Node, resource, content string) *NodeResult {
		start := time.Now()
		r := inv(ctx, node, resource, content)

		fields := logger.WithDuration(logger.Fields(
			logger.FieldNodeID, string(node.ID),
			logger.FieldMethod, node.Method,
			logger.FieldResource, resource,
		), time.Since(start))
		if r == nil {
			log.Error("node returned no result", fields)
			return r
		}
		fields[logger.FieldStatus] = r.Status()
		if r.Succeeded() {
			log.Debug("node completed", fields)
			return r
		}
		if r.Err() != nil {
			fields[logger.FieldError] = r.Err().Error()
		}
		log.Warn("node failed", fields)
		return r
	}
}
