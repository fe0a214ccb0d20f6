// Package graph models the dependency structure of one orchestration run.
//
// A Topology is a named, registered DAG template mapping agent roles to
// their direct predecessors. Build projects a topology onto the set of
// requested roles, producing a per-run TaskGraph of Nodes. Each Node carries
// the bound agent plus mutable run state (pending, ready, running, done,
// failed, skipped) with validated transitions.
//
// The TaskGraph itself performs no scheduling; the engine package owns the
// scheduling loop and is the single writer of node state.
package graph
