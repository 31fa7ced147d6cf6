package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kbukum/gobatch/dag"
)

// Request is the wire form of one node.
type Request struct {
	Method     string   `json:"Method"`
	Resource   string   `json:"Resource"`
	Content    string   `json:"Content,omitempty"`
	Parameters []string `json:"Parameters,omitempty"`
	ParentIds  []string `json:"ParentIds,omitempty"`
}

// UnmarshalJSON accepts Content either as a string or as an inline JSON
// value, which is kept as compact text.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w struct {
		Method     string          `json:"Method"`
		Resource   string          `json:"Resource"`
		Content    json.RawMessage `json:"Content"`
		Parameters []string        `json:"Parameters"`
		ParentIds  []string        `json:"ParentIds"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Method, r.Resource, r.Parameters, r.ParentIds = w.Method, w.Resource, w.Parameters, w.ParentIds
	r.Content = ""

	content := bytes.TrimSpace(w.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
	case content[0] == '"':
		if err := json.Unmarshal(content, &r.Content); err != nil {
			return fmt.Errorf("Content: %w", err)
		}
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, content); err != nil {
			return fmt.Errorf("Content: %w", err)
		}
		r.Content = buf.String()
	}
	return nil
}

// Envelope is the batch request body.
type Envelope map[dag.NodeID]Request

// Encode converts a graph into its envelope.
func Encode(g *dag.Graph) Envelope {
	env := make(Envelope, g.Len())
	for _, n := range g.Nodes() {
		req := Request{
			Method:   n.Method,
			Resource: n.Resource,
			Content:  n.Content,
		}
		for _, ref := range n.Parameters {
			req.Parameters = append(req.Parameters, ref.String())
		}
		for _, p := range n.ParentIDs {
			req.ParentIds = append(req.ParentIds, string(p))
		}
		env[n.ID] = req
	}
	return env
}

// Bytes renders the envelope with sorted keys and without HTML escaping, so
// resource URLs keep their '&' characters.
func (e Envelope) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[dag.NodeID]Request(e)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeEnvelope parses a batch request body.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, fmt.Errorf("batch request body is null")
	}
	return env, nil
}

// Graph validates the envelope into a graph. Construction errors are those of
// dag.Builder.
func (e Envelope) Graph() (*dag.Graph, error) {
	b := dag.NewBuilder()
	for _, id := range e.ids() {
		req := e[id]
		err := b.AddNode(dag.NodeSpec{
			ID:         string(id),
			Method:     req.Method,
			Resource:   req.Resource,
			Content:    req.Content,
			Parameters: req.Parameters,
			ParentIDs:  req.ParentIds,
		})
		if err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func (e Envelope) ids() []dag.NodeID {
	ids := make([]dag.NodeID, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
