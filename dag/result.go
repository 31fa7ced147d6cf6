package dag

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Outcome classifies a node result.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// StatusSkipped is the status of a node that was not invoked because an
// ancestor failed or was skipped.
const StatusSkipped = http.StatusFailedDependency

// ErrSkippedDueToAncestorFailure marks results of nodes that were never invoked.
var ErrSkippedDueToAncestorFailure = stderrors.New("skipped due to ancestor failure")

// NodeResult is the immutable outcome of one node: status, headers and body,
// with the body decoded lazily into a Value.
type NodeResult struct {
	status   int
	headers  map[string]string
	body     []byte
	outcome  Outcome
	err      error
	duration time.Duration

	once    sync.Once
	content Value
}

// NewNodeResult builds a result from a response. 2xx statuses succeed, all others fail.
func NewNodeResult(status int, headers map[string]string, body []byte) *NodeResult {
	outcome := OutcomeFailed
	if status >= 200 && status < 300 {
		outcome = OutcomeSucceeded
	}
	return &NodeResult{
		status:  status,
		headers: copyHeaders(headers),
		body:    append([]byte(nil), body...),
		outcome: outcome,
	}
}

// NewErrorResult builds a failed result whose body lists err in an Errors array.
func NewErrorResult(status int, err error) *NodeResult {
	r := NewNodeResult(status, nil, errorBody(err))
	r.outcome = OutcomeFailed
	r.err = err
	return r
}

// NewSkippedResult builds the result of a node that was never invoked.
func NewSkippedResult(reason error) *NodeResult {
	r := NewNodeResult(StatusSkipped, nil, errorBody(reason))
	r.outcome = OutcomeSkipped
	r.err = reason
	return r
}

func errorBody(err error) []byte {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body, _ := json.Marshal(map[string][]string{"Errors": {msg}})
	return body
}

// Status returns the node's HTTP status.
func (r *NodeResult) Status() int { return r.status }

// Outcome returns whether the node succeeded, failed or was skipped.
func (r *NodeResult) Outcome() Outcome { return r.outcome }

// Succeeded reports a 2xx result.
func (r *NodeResult) Succeeded() bool { return r.outcome == OutcomeSucceeded }

// Err returns the error attached to a failed or skipped result.
func (r *NodeResult) Err() error { return r.err }

// Duration returns how long the invocation took, when measured locally.
func (r *NodeResult) Duration() time.Duration { return r.duration }

// Header returns a response header value.
func (r *NodeResult) Header(name string) string {
	if v, ok := r.headers[name]; ok {
		return v
	}
	return r.headers[http.CanonicalHeaderKey(name)]
}

// Headers returns a copy of the response headers.
func (r *NodeResult) Headers() map[string]string { return copyHeaders(r.headers) }

// Body returns a copy of the raw body.
func (r *NodeResult) Body() []byte { return append([]byte(nil), r.body...) }

// Content returns the decoded body. Bodies that are not JSON decode to a
// string value; an empty body decodes to null.
func (r *NodeResult) Content() Value {
	r.once.Do(func() {
		r.content = decodeContent(r.body)
	})
	return r.content
}

// Object returns the value references are evaluated against. Header names
// are canonicalized, so $.1.Headers.Location matches a "location" header.
func (r *NodeResult) Object() Value {
	headers := make(map[string]Value, len(r.headers))
	for k, v := range r.headers {
		headers[http.CanonicalHeaderKey(k)] = String(v)
	}
	return Object(map[string]Value{
		"Status":  Int(int64(r.status)),
		"Headers": Object(headers),
		"Content": r.Content(),
	})
}

func (r *NodeResult) withDuration(d time.Duration) *NodeResult {
	return &NodeResult{
		status:   r.status,
		headers:  r.headers,
		body:     r.body,
		outcome:  r.outcome,
		err:      r.err,
		duration: d,
	}
}

func decodeContent(body []byte) Value {
	if len(body) == 0 {
		return Null()
	}
	v, err := ParseValue(body)
	if err != nil {
		return String(string(body))
	}
	return v
}

type wireResult struct {
	Status  int               `json:"Status"`
	Headers map[string]string `json:"Headers"`
	Content json.RawMessage   `json:"Content"`
	Error   string            `json:"Error,omitempty"`
	Skipped bool              `json:"Skipped,omitempty"`
}

// MarshalJSON encodes the result in the aggregate response shape
// {"Status", "Headers", "Content"}. Error and Skipped are added when set.
func (r *NodeResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Status:  r.status,
		Headers: r.headers,
		Skipped: r.outcome == OutcomeSkipped,
	}
	if w.Headers == nil {
		w.Headers = map[string]string{}
	}
	if r.err != nil {
		w.Error = r.err.Error()
	}
	if content, err := r.Content().MarshalJSON(); err == nil {
		w.Content = content
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the aggregate response shape. The outcome is taken
// from Skipped when present, else from the status.
func (r *NodeResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Status == 0 {
		return fmt.Errorf("result has no Status")
	}

	var body []byte
	if len(w.Content) > 0 && string(w.Content) != "null" {
		body = w.Content
	}
	decoded := NewNodeResult(w.Status, w.Headers, body)
	switch {
	case w.Skipped:
		decoded.outcome = OutcomeSkipped
		decoded.err = fmt.Errorf("%w: %s", ErrSkippedDueToAncestorFailure, w.Error)
	case w.Error != "":
		decoded.err = stderrors.New(w.Error)
	}

	r.status, r.headers, r.body = decoded.status, decoded.headers, decoded.body
	r.outcome, r.err = decoded.outcome, decoded.err
	return nil
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// BatchResult is the per-node result set of one submission.
type BatchResult struct {
	ID       string                 `json:"id"`
	Status   int                    `json:"status"`
	Results  map[NodeID]*NodeResult `json:"results"`
	Duration time.Duration          `json:"duration"`
}

// Result returns the result of id.
func (b *BatchResult) Result(id NodeID) (*NodeResult, bool) {
	r, ok := b.Results[id]
	return r, ok
}

// IDs returns the node ids in sorted order.
func (b *BatchResult) IDs() []NodeID {
	ids := make([]NodeID, 0, len(b.Results))
	for id := range b.Results {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Unsuccessful returns the sorted ids of failed and skipped nodes.
func (b *BatchResult) Unsuccessful() []NodeID {
	var ids []NodeID
	for id, r := range b.Results {
		if !r.Succeeded() {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// AllSucceeded reports whether every node succeeded.
func (b *BatchResult) AllSucceeded() bool {
	return len(b.Unsuccessful()) == 0
}

func sortIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func idStrings(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
