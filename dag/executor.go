package dag

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/logger"
)

// Invoker performs one node's operation with its placeholders already filled.
type Invoker func(ctx context.Context, node Node, resource, content string) *NodeResult

// Executor runs a graph locally. A node becomes ready when its last parent
// publishes a result; ready nodes are consumed by a pool of workers.
type Executor struct {
	// MaxParallel bounds concurrent invocations (0 = one worker per node).
	MaxParallel int
	// Log receives skip and abort diagnostics. Nil disables logging.
	Log *logger.Logger
}

// Execute invokes every node at most once, each only after all its parents
// have published. Nodes with a failed or skipped parent are recorded as
// skipped without being invoked. A reference path missing from a parent's
// result fails the node with status 400.
//
// If ctx is cancelled, nodes not yet invoked are recorded as skipped and the
// partial result is returned together with the context error.
func (e *Executor) Execute(ctx context.Context, g *Graph, invoke Invoker) (*BatchResult, error) {
	start := time.Now()
	run := &execution{
		graph:   g,
		invoke:  invoke,
		log:     e.Log,
		pending: make(map[NodeID]int, g.Len()),
		results: make(map[NodeID]*NodeResult, g.Len()),
		ready:   make(chan NodeID, g.Len()),
	}
	if run.log == nil {
		run.log = logger.Nop()
	}

	batch := &BatchResult{ID: uuid.NewString(), Status: http.StatusMultiStatus}
	if g.Len() == 0 {
		batch.Results = map[NodeID]*NodeResult{}
		return batch, nil
	}

	for _, id := range g.order {
		n := len(g.nodes[id].ParentIDs)
		run.pending[id] = n
		if n == 0 {
			run.ready <- id
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < e.workers(g.Len()); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range run.ready {
				run.publish(id, run.execute(ctx, id))
			}
		}()
	}
	wg.Wait()

	batch.Results = run.results
	batch.Duration = time.Since(start)
	if run.abort != nil {
		return nil, run.abort
	}
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

func (e *Executor) workers(n int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > n {
		return n
	}
	return e.MaxParallel
}

type execution struct {
	graph  *Graph
	invoke Invoker
	log    *logger.Logger

	mu       sync.RWMutex
	pending  map[NodeID]int
	results  map[NodeID]*NodeResult
	finished int
	abort    error

	ready chan NodeID
}

func (x *execution) execute(ctx context.Context, id NodeID) *NodeResult {
	node := x.graph.nodes[id]

	parents := make(map[NodeID]*NodeResult, len(node.ParentIDs))
	x.mu.RLock()
	for _, p := range node.ParentIDs {
		if r, ok := x.results[p]; ok {
			parents[p] = r
		}
	}
	x.mu.RUnlock()

	for _, p := range node.ParentIDs {
		r, ok := parents[p]
		if !ok {
			err := errors.ParentNotYetExecuted(string(p))
			x.fail(err)
			return NewErrorResult(http.StatusInternalServerError, err)
		}
		if !r.Succeeded() {
			x.log.Debug("node skipped", logger.Fields(logger.FieldNodeID, string(id), "parent_id", string(p), logger.FieldOutcome, string(r.Outcome())))
			return NewSkippedResult(fmt.Errorf("%w: parent %q %s", ErrSkippedDueToAncestorFailure, p, r.Outcome()))
		}
	}

	if err := ctx.Err(); err != nil {
		return NewSkippedResult(fmt.Errorf("not invoked: %w", err))
	}

	values, err := ResolveAll(node.Parameters, parents)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeFieldPathNotFound) {
			x.log.Warn("reference did not resolve", logger.Fields(logger.FieldNodeID, string(id), logger.FieldError, err.Error()))
			return NewErrorResult(http.StatusBadRequest, err)
		}
		x.fail(err)
		return NewErrorResult(http.StatusInternalServerError, err)
	}

	return x.call(ctx, node, FillTemplate(node.Resource, values), FillTemplate(node.Content, values))
}

func (x *execution) call(ctx context.Context, node Node, resource, content string) (result *NodeResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = NewErrorResult(http.StatusInternalServerError, errors.Internal(fmt.Errorf("invoker panic: %v", rec)))
		}
		result = result.withDuration(time.Since(start))
	}()

	result = x.invoke(ctx, node.clone(), resource, content)
	if result == nil {
		result = NewErrorResult(http.StatusInternalServerError, errors.Internal(fmt.Errorf("invoker returned no result for node %q", node.ID)))
	}
	return result
}

// publish records r and queues every child whose parents have all published.
func (x *execution) publish(id NodeID, r *NodeResult) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.results[id] = r
	for _, c := range x.graph.children[id] {
		x.pending[c]--
		if x.pending[c] == 0 {
			x.ready <- c
		}
	}
	x.finished++
	if x.finished == len(x.graph.nodes) {
		close(x.ready)
	}
}

func (x *execution) fail(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.abort == nil {
		x.abort = err
		x.log.Error("execution aborted", logger.Fields(logger.FieldError, err.Error()))
	}
}
