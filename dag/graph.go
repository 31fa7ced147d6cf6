package dag

import (
	"github.com/kbukum/gobatch/errors"
)

// Graph is a validated, acyclic set of nodes. It is never mutated after
// Build and is safe for concurrent reads.
type Graph struct {
	nodes    map[NodeID]Node
	children map[NodeID][]NodeID
	order    []NodeID
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Has reports whether id is part of the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Order returns the node ids in topological order; parents precede children
// and ties are broken by id.
func (g *Graph) Order() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Nodes returns the nodes in topological order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id].clone()
	}
	return out
}

// Children returns the ids of the nodes that declare id as a parent.
func (g *Graph) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), g.children[id]...)
}

// topoSort runs Kahn's algorithm over nodes, picking the smallest ready id
// first. It returns the nodes that could not be ordered when a cycle exists.
func topoSort(nodes map[NodeID]Node) (order []NodeID, children map[NodeID][]NodeID, stuck []NodeID) {
	inDegree := make(map[NodeID]int, len(nodes))
	children = make(map[NodeID][]NodeID, len(nodes))
	for id, n := range nodes {
		inDegree[id] = len(n.ParentIDs)
		for _, p := range n.ParentIDs {
			children[p] = append(children[p], id)
		}
	}
	for _, c := range children {
		sortIDs(c)
	}

	var ready []NodeID
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	order = make([]NodeID, 0, len(nodes))
	for len(ready) > 0 {
		sortIDs(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, c := range children[id] {
			inDegree[c]--
			if inDegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) == len(nodes) {
		return order, children, nil
	}
	return nil, nil, cycleMembers(nodes, inDegree, children)
}

// cycleMembers narrows the unordered nodes to those on or between cycles by
// repeatedly dropping nodes with no unordered children.
func cycleMembers(nodes map[NodeID]Node, inDegree map[NodeID]int, children map[NodeID][]NodeID) []NodeID {
	remaining := make(map[NodeID]bool)
	for id, deg := range inDegree {
		if deg > 0 {
			remaining[id] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for id := range remaining {
			hasChild := false
			for _, c := range children[id] {
				if remaining[c] {
					hasChild = true
					break
				}
			}
			if !hasChild {
				delete(remaining, id)
				changed = true
			}
		}
	}

	out := make([]NodeID, 0, len(remaining))
	for id := range remaining {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func cycleError(stuck []NodeID) error {
	return errors.CyclicDependency(idStrings(stuck))
}
