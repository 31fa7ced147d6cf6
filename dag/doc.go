// Package dag models a batch of remote operations as a dependency graph.
//
// A Builder collects nodes and validates them into an immutable Graph: ids
// are unique, every reference names a declared parent, every parent exists
// and the parent edges are acyclic. A node's Resource and Content are
// templates; placeholder {i} receives the value of Parameters[i], a
// Reference such as $.1.Content.Items[0].WebId into a parent's result.
//
// Results are NodeResult values keyed by node id in a BatchResult. The
// Executor runs a graph in process against an Invoker, resolving references
// itself; the batch package submits the same graph to a remote endpoint that
// resolves them server-side.
package dag
