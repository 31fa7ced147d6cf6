// Package batch submits a dag.Graph to a remote batch endpoint in a single
// round trip and maps the aggregate reply back onto per-node results.
//
// The request body is an Envelope keyed by node id. References travel
// unresolved in Parameters and are substituted by the endpoint, which runs
// each node after its ParentIds:
//
//	{
//	  "1": {"Method": "GET", "Resource": "https://pi/piwebapi/points?path=\\\\srv\\sinusoid"},
//	  "2": {"Method": "GET", "Resource": "{0}", "Parameters": ["$.1.Content.Links.Value"], "ParentIds": ["1"]}
//	}
//
// The reply holds one {Status, Headers, Content} entry per node. A 2xx outer
// status only means the reply can be demultiplexed; callers inspect each
// NodeResult for the outcome of the individual operations.
package batch
