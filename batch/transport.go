package batch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/httpclient"
	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/observability"
)

// DefaultPath is the batch URL used when none is configured.
const DefaultPath = "/batch"

// HeaderRequestID carries the batch id on the outbound call.
const HeaderRequestID = "X-Request-Id"

const component = "transport"

// Transport submits graphs through a Sender.
type Transport struct {
	sender  Sender
	url     string
	headers map[string]string
	log     *logger.Logger
	rec     observability.Recorder
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithURL sets the batch URL, absolute or relative to the sender's base URL.
func WithURL(url string) TransportOption {
	return func(t *Transport) { t.url = url }
}

// WithHeaders adds headers to every batch call.
func WithHeaders(h map[string]string) TransportOption {
	return func(t *Transport) {
		for k, v := range h {
			t.headers[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) TransportOption {
	return func(t *Transport) {
		if l != nil {
			t.log = l.WithComponent(component)
		}
	}
}

// WithRecorder sets where batch measurements go.
func WithRecorder(r observability.Recorder) TransportOption {
	return func(t *Transport) {
		if r != nil {
			t.rec = r
		}
	}
}

// NewTransport creates a transport on sender.
func NewTransport(sender Sender, opts ...TransportOption) *Transport {
	t := &Transport{
		sender:  sender,
		url:     DefaultPath,
		headers: map[string]string{"Content-Type": "application/json"},
		log:     logger.Nop(),
		rec:     observability.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit sends g in one POST and demultiplexes the reply. Any failure of the
// call itself, including a non-2xx outer status or a done context, is a
// TRANSPORT_ERROR and no partial result is returned. Per-node failures are
// data in the returned result.
func (t *Transport) Submit(ctx context.Context, g *dag.Graph) (*dag.BatchResult, error) {
	start := time.Now()
	batchID := uuid.NewString()

	ctx, span := observability.StartSpan(ctx, observability.SpanBatchSubmit)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBatchID, batchID)
	observability.SetSpanAttribute(ctx, observability.AttrNodeCount, g.Len())

	log := t.log.WithFields(logger.Fields(logger.FieldBatchID, batchID))
	result, err := t.submit(ctx, g, batchID, log)
	d := time.Since(start)
	if err != nil {
		code := "unknown"
		if appErr, ok := errors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		t.rec.RecordError(ctx, code, component)
		t.rec.RecordBatch(ctx, observability.OutcomeError, g.Len(), d)
		observability.SetSpanError(ctx, err)
		log.Error("batch submit failed", logger.WithDuration(logger.ErrorFields("submit", err), d))
		return nil, err
	}

	result.ID = batchID
	result.Duration = d
	observability.SetSpanAttribute(ctx, observability.AttrStatus, result.Status)
	t.rec.RecordBatch(ctx, observability.OutcomeSucceeded, g.Len(), d)
	log.Info("batch submitted", logger.WithDuration(logger.Fields(
		logger.FieldNodes, g.Len(),
		logger.FieldStatus, result.Status,
		"unsuccessful", len(result.Unsuccessful()),
	), d))
	return result, nil
}

func (t *Transport) submit(ctx context.Context, g *dag.Graph, batchID string, log *logger.Logger) (*dag.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport("batch not sent", err)
	}

	body, err := Encode(g).Bytes()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("encode envelope: %w", err))
	}

	headers := make(map[string]string, len(t.headers)+1)
	for k, v := range t.headers {
		headers[k] = v
	}
	headers[HeaderRequestID] = batchID

	log.Debug("sending batch", logger.Fields(logger.FieldNodes, g.Len(), "url", t.url, "bytes", len(body)))
	reply, err := t.sender.Send(ctx, http.MethodPost, t.url, headers, body)
	if err != nil {
		return nil, transportError(err, reply)
	}
	if reply == nil {
		return nil, errors.Transport("batch call returned no reply", nil)
	}
	if reply.Status < 200 || reply.Status > 299 {
		return nil, errors.Transport(fmt.Sprintf("batch endpoint answered %d", reply.Status), nil).
			WithDetail("status", reply.Status)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport("batch call interrupted", err)
	}

	result, err := Demux(reply.Body, g)
	if err != nil {
		return nil, err
	}
	result.Status = reply.Status
	return result, nil
}

func transportError(err error, reply *Reply) error {
	appErr := errors.Transport("batch call failed", err)
	appErr.Retryable = httpclient.IsRetryable(err)
	if reply != nil {
		appErr.WithDetail("status", reply.Status)
	} else if status := httpclient.StatusOf(err); status > 0 {
		appErr.WithDetail("status", status)
	}
	return appErr
}
