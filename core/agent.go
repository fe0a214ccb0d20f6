package core

import "context"

// Agent is a named role participating in a run. Implementations compose a
// role-specific request from the task and the outputs of their graph
// predecessors, delegate reasoning to a model backend, and map the raw
// backend output into the PartialOutput shape the aggregator expects for
// that role.
//
// Implementations must:
//   - Respect context cancellation on the backend call
//   - Be safe for reuse across runs (no per-run mutable state)
//   - Wrap backend failures into an AgentError carrying the role name
type Agent interface {
	// Role returns the role identifier used in topologies and result keys
	// (e.g. "system_designer", "angular_expert").
	Role() string

	// Run produces this role's partial output for the task. Upstream holds
	// the outputs of the role's direct predecessors keyed by role name; it
	// is empty for root roles.
	Run(ctx context.Context, task Task, upstream map[string]PartialOutput) (PartialOutput, error)
}
