package emulator

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gobatch/batch"
	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/server"
	"github.com/kbukum/gobatch/server/middleware"
)

// handleBatch answers one envelope. Construction errors reject the whole
// batch with their AppError status; node failures are reported inside the
// 207 body.
func (e *Emulator) handleBatch(c *gin.Context) {
	ctx := c.Request.Context()
	err := e.bulkhead.Execute(ctx, func() error {
		e.serveBatch(c)
		return nil
	})
	if err == nil {
		return
	}

	// serveBatch never fails, so err is always a rejection by the bulkhead.
	appErr := errors.Unavailable("batch endpoint").WithCause(err)
	e.rec.RecordError(ctx, string(appErr.Code), componentName)
	e.log.Warn("batch rejected", logger.Fields(
		logger.FieldBatchID, middleware.GetRequestID(c),
		logger.FieldError, err.Error(),
	))
	server.RespondWithError(c, appErr)
}

func (e *Emulator) serveBatch(c *gin.Context) {
	start := time.Now()
	batchID := middleware.GetRequestID(c)
	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanBatchExecute)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBatchID, batchID)

	g, err := e.readGraph(c)
	if err != nil {
		e.reject(ctx, c, batchID, err, time.Since(start))
		return
	}
	observability.SetSpanAttribute(ctx, observability.AttrNodeCount, g.Len())

	e.collector.BatchStarted()
	defer e.collector.BatchFinished()

	res, err := e.exec.Execute(ctx, g, e.invoke)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Transport("batch cancelled by caller", err)
		}
		e.reject(ctx, c, batchID, err, time.Since(start))
		return
	}
	if batchID != "" {
		res.ID = batchID
	}

	body, err := batch.EncodeResult(res)
	if err != nil {
		e.reject(ctx, c, batchID, errors.Internal(err), time.Since(start))
		return
	}

	e.rec.RecordBatch(ctx, observability.OutcomeSucceeded, g.Len(), time.Since(start))
	e.log.Info("batch executed", logger.WithDuration(logger.Fields(
		logger.FieldBatchID, res.ID,
		logger.FieldNodes, g.Len(),
		"unsuccessful", len(res.Unsuccessful()),
	), time.Since(start)))

	server.RespondRaw(c, http.StatusMultiStatus, body)
}

// readGraph decodes and validates the envelope in the request body.
func (e *Emulator) readGraph(c *gin.Context) (*dag.Graph, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "batch request body too large", http.StatusRequestEntityTooLarge)
		}
		return nil, errors.InvalidInput("body", err.Error())
	}
	env, err := batch.DecodeEnvelope(raw)
	if err != nil {
		return nil, errors.InvalidInput("body", err.Error())
	}
	return env.Graph()
}

func (e *Emulator) reject(ctx context.Context, c *gin.Context, batchID string, err error, d time.Duration) {
	code := string(errors.ErrCodeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	observability.SetSpanError(ctx, err)
	e.rec.RecordError(ctx, code, componentName)
	e.rec.RecordBatch(ctx, observability.OutcomeError, 0, d)
	e.log.Warn("batch refused", logger.Fields(
		logger.FieldBatchID, batchID,
		logger.FieldError, err.Error(),
		"code", code,
	))
	server.RespondWithError(c, err)
}
