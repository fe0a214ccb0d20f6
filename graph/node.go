package graph

import (
	"fmt"

	"github.com/tuandaodev/gptswarm/core"
)

// Status is the runtime execution state of a node. Nodes are created
// pending, promoted to ready once every predecessor is done, and settle in
// exactly one terminal state.
type Status int

const (
	// StatusPending marks a node waiting on at least one predecessor.
	StatusPending Status = iota
	// StatusReady marks a node whose predecessors are all done.
	StatusReady
	// StatusRunning marks a node whose agent call is in flight.
	StatusRunning
	// StatusDone marks a node that completed with output.
	StatusDone
	// StatusFailed marks a node whose agent call failed.
	StatusFailed
	// StatusSkipped marks a node never started because a predecessor failed
	// or the run was cancelled.
	StatusSkipped
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Node wraps one bound agent with its per-run state. A Node belongs to
// exactly one TaskGraph and one run; state mutation is reserved for the
// scheduling loop, which acts as the single writer.
type Node struct {
	role   string
	agent  core.Agent
	preds  []string
	status Status
	output core.PartialOutput
	err    error
}

// Role returns the node's role identifier.
func (n *Node) Role() string { return n.role }

// Agent returns the agent bound to this node.
func (n *Node) Agent() core.Agent { return n.agent }

// Preds returns the roles of the node's in-graph predecessors.
func (n *Node) Preds() []string { return append([]string(nil), n.preds...) }

// Status returns the node's current state.
func (n *Node) Status() Status { return n.status }

// Output returns the node's partial output once it is done, nil otherwise.
func (n *Node) Output() core.PartialOutput { return n.output }

// Err returns the node's failure once it has failed, nil otherwise.
func (n *Node) Err() error { return n.err }

// Transition moves the node to a new state, rejecting anything outside the
// pending -> ready -> running -> done/failed lifecycle (plus skipping of
// nodes that never started). A rejected transition indicates a scheduler
// bug, such as promoting a node to ready twice.
func (n *Node) Transition(to Status) error {
	if !allowedTransition(n.status, to) {
		return fmt.Errorf("node %s: disallowed transition %s -> %s", n.role, n.status, to)
	}
	n.status = to
	return nil
}

func allowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusReady || to == StatusSkipped
	case StatusReady:
		return to == StatusRunning || to == StatusSkipped
	case StatusRunning:
		return to == StatusDone || to == StatusFailed
	default:
		return false
	}
}

// Complete transitions the node from running to done, storing its output.
func (n *Node) Complete(out core.PartialOutput) error {
	if err := n.Transition(StatusDone); err != nil {
		return err
	}
	n.output = out
	return nil
}

// Fail transitions the node from running to failed, storing its error.
func (n *Node) Fail(err error) error {
	if terr := n.Transition(StatusFailed); terr != nil {
		return terr
	}
	n.err = err
	return nil
}
