package dag

import "strings"

// NodeID identifies a node within one graph. It is chosen by the caller and
// must not contain '.', '[' or ']'.
type NodeID string

// Request verbs accepted for nodes.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// Node is one remote operation. Resource and Content are templates whose
// {i} placeholders are filled from Parameters[i].
type Node struct {
	ID         NodeID
	Method     string
	Resource   string
	Content    string
	Parameters []Reference
	ParentIDs  []NodeID
}

// HasParent reports whether id is a declared parent.
func (n Node) HasParent(id NodeID) bool {
	for _, p := range n.ParentIDs {
		if p == id {
			return true
		}
	}
	return false
}

func (n Node) clone() Node {
	c := n
	c.Parameters = make([]Reference, len(n.Parameters))
	for i, r := range n.Parameters {
		c.Parameters[i] = Reference{Parent: r.Parent, Path: append([]Segment(nil), r.Path...)}
	}
	c.ParentIDs = append([]NodeID(nil), n.ParentIDs...)
	return c
}

// NodeSpec is the caller-facing description of a node, with references in
// their string form.
type NodeSpec struct {
	ID         string   `json:"id" yaml:"id" validate:"nodeid"`
	Method     string   `json:"method" yaml:"method" validate:"httpmethod"`
	Resource   string   `json:"resource" yaml:"resource" validate:"required"`
	Content    string   `json:"content,omitempty" yaml:"content,omitempty"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ParentIDs  []string `json:"parents,omitempty" yaml:"parents,omitempty" validate:"dive,nodeid"`
}

func normalizeMethod(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}
