package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
)

// Demux maps an aggregate reply onto the nodes of g. Every node must have an
// entry; entries for unknown ids are ignored.
func Demux(raw []byte, g *dag.Graph) (*dag.BatchResult, error) {
	entries, err := DecodeResult(raw)
	if err != nil {
		return nil, err
	}

	results := make(map[dag.NodeID]*dag.NodeResult, g.Len())
	var missing []string
	for _, id := range g.Order() {
		r, ok := entries[id]
		if !ok {
			missing = append(missing, string(id))
			continue
		}
		results[id] = r
	}
	if len(missing) > 0 {
		return nil, errors.MissingNodeResult(missing)
	}
	return &dag.BatchResult{Status: http.StatusMultiStatus, Results: results}, nil
}

// DecodeResult parses an aggregate reply {id: {Status, Headers, Content}}.
func DecodeResult(raw []byte) (map[dag.NodeID]*dag.NodeResult, error) {
	var entries map[dag.NodeID]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.MalformedBatchBody(err)
	}
	if entries == nil {
		return nil, errors.MalformedBatchBody(fmt.Errorf("body is not an object"))
	}

	ids := make([]dag.NodeID, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[dag.NodeID]*dag.NodeResult, len(entries))
	for _, id := range ids {
		entry := bytes.TrimSpace(entries[id])
		if bytes.Equal(entry, []byte("null")) {
			return nil, errors.MalformedBatchBody(fmt.Errorf("entry %q is null", id)).WithDetail("node_id", string(id))
		}
		r := new(dag.NodeResult)
		if err := json.Unmarshal(entry, r); err != nil {
			return nil, errors.MalformedBatchBody(fmt.Errorf("entry %q: %w", id, err)).WithDetail("node_id", string(id))
		}
		out[id] = r
	}
	return out, nil
}

// EncodeResult renders results in the aggregate reply shape.
func EncodeResult(b *dag.BatchResult) ([]byte, error) {
	results := b.Results
	if results == nil {
		results = map[dag.NodeID]*dag.NodeResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
