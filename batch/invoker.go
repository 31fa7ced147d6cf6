package batch

import (
	"context"
	"net/http"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
)

// SenderInvoker performs each node as its own request through s. It lets
// dag.Executor run a graph against the individual endpoints, without the
// batch endpoint, using the same transport stack as Submit.
func SenderInvoker(s Sender, headers map[string]string) dag.Invoker {
	return func(ctx context.Context, node dag.Node, resource, content string) *dag.NodeResult {
		h := make(map[string]string, len(headers)+1)
		for k, v := range headers {
			h[k] = v
		}
		var body []byte
		if content != "" {
			body = []byte(content)
			h["Content-Type"] = "application/json"
		}

		reply, err := s.Send(ctx, node.Method, resource, h, body)
		if reply == nil {
			if err == nil {
				err = errors.Transport("no reply", nil)
			}
			return dag.NewErrorResult(http.StatusBadGateway, transportError(err, nil))
		}
		return dag.NewNodeResult(reply.Status, reply.Headers, reply.Body)
	}
}
