package dag

import (
	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/validation"
)

// Builder accumulates nodes and validates them into a Graph. It does no I/O.
// Parents may be added after their children; parent existence is checked by
// Build.
type Builder struct {
	nodes map[NodeID]Node
	order []NodeID
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[NodeID]Node)}
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int { return len(b.nodes) }

// Add is the positional form of AddNode.
func (b *Builder) Add(id, method, resource, content string, params []string, parents ...NodeID) error {
	ps := make([]string, len(parents))
	for i, p := range parents {
		ps[i] = string(p)
	}
	return b.AddNode(NodeSpec{
		ID:         id,
		Method:     method,
		Resource:   resource,
		Content:    content,
		Parameters: params,
		ParentIDs:  ps,
	})
}

// AddNode adds a node. It fails with INVALID_INPUT for a malformed id,
// method or reference and with DUPLICATE_NODE_ID when the id exists.
func (b *Builder) AddNode(spec NodeSpec) error {
	if err := validation.Validate(spec); err != nil {
		return err
	}
	id := NodeID(spec.ID)
	if _, exists := b.nodes[id]; exists {
		return errors.DuplicateNodeID(spec.ID)
	}

	params := make([]Reference, len(spec.Parameters))
	for i, raw := range spec.Parameters {
		ref, err := ParseReference(raw)
		if err != nil {
			return err
		}
		params[i] = ref
	}

	var parents []NodeID
	seen := make(map[NodeID]bool, len(spec.ParentIDs))
	for _, p := range spec.ParentIDs {
		pid := NodeID(p)
		if !seen[pid] {
			seen[pid] = true
			parents = append(parents, pid)
		}
	}

	b.nodes[id] = Node{
		ID:         id,
		Method:     normalizeMethod(spec.Method),
		Resource:   spec.Resource,
		Content:    spec.Content,
		Parameters: params,
		ParentIDs:  parents,
	}
	b.order = append(b.order, id)
	return nil
}

// Build validates the accumulated nodes and returns an independent Graph.
// Checks run in this order and the first failure is returned:
// DANGLING_REFERENCE, UNKNOWN_PARENT, CYCLIC_DEPENDENCY.
func (b *Builder) Build() (*Graph, error) {
	for _, id := range b.order {
		n := b.nodes[id]
		for _, ref := range n.Parameters {
			if _, ok := b.nodes[ref.Parent]; !ok {
				return nil, errors.DanglingReference(string(id), string(ref.Parent), "no such node")
			}
			if !n.HasParent(ref.Parent) {
				return nil, errors.DanglingReference(string(id), string(ref.Parent), "not a declared parent")
			}
		}
	}
	for _, id := range b.order {
		for _, p := range b.nodes[id].ParentIDs {
			if _, ok := b.nodes[p]; !ok {
				return nil, errors.UnknownParent(string(id), string(p))
			}
		}
	}

	nodes := make(map[NodeID]Node, len(b.nodes))
	for id, n := range b.nodes {
		nodes[id] = n.clone()
	}
	order, children, stuck := topoSort(nodes)
	if stuck != nil {
		return nil, cycleError(stuck)
	}
	return &Graph{nodes: nodes, children: children, order: order}, nil
}
