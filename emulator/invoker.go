package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
)

// HandlerInvoker performs each node as an in-memory request against h. The
// node's Resource may be absolute or a path; only its path and query reach h.
func HandlerInvoker(h http.Handler) dag.Invoker {
	return func(ctx context.Context, node dag.Node, resource, content string) *dag.NodeResult {
		var body io.Reader = http.NoBody
		if content != "" {
			body = strings.NewReader(content)
		}
		req, err := http.NewRequestWithContext(ctx, node.Method, resource, body)
		if err != nil {
			return dag.NewErrorResult(http.StatusBadRequest,
				errors.InvalidInput("Resource", err.Error()).WithDetail("node_id", string(node.ID)))
		}
		if content != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return dag.NewNodeResult(rec.Code, flattenHeaders(rec.Header()), rec.Body.Bytes())
	}
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}

// WithLenientContent repairs object or array Content that is not valid JSON,
// e.g. {'Value': 1.5}, before it reaches inv. Irreparable content fails the
// node with 400.
func WithLenientContent(inv dag.Invoker) dag.Invoker {
	return func(ctx context.Context, node dag.Node, resource, content string) *dag.NodeResult {
		fixed, err := repairContent(content)
		if err != nil {
			return dag.NewErrorResult(http.StatusBadRequest,
				errors.InvalidInput("Content", err.Error()).WithDetail("node_id", string(node.ID)))
		}
		return inv(ctx, node, resource, fixed)
	}
}

func repairContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || json.Valid([]byte(trimmed)) {
		return content, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return content, nil
	}
	fixed, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return "", fmt.Errorf("content is not valid JSON: %w", err)
	}
	return fixed, nil
}

// WithTimeout bounds each invocation of inv by d. A node that overruns is
// failed with 504; zero disables the limit.
func WithTimeout(inv dag.Invoker, d time.Duration) dag.Invoker {
	if d <= 0 {
		return inv
	}
	return func(ctx context.Context, node dag.Node, resource, content string) *dag.NodeResult {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		r := inv(ctx, node, resource, content)
		if ctx.Err() == context.DeadlineExceeded && (r == nil || r.Succeeded()) {
			return dag.NewErrorResult(http.StatusGatewayTimeout,
				fmt.Errorf("node %s exceeded %s", node.ID, d))
		}
		return r
	}
}
