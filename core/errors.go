package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCancelled marks a run that was cancelled or timed out before every node
// settled. Errors returned by the orchestrator wrap it; detect with
// errors.Is(err, ErrCancelled).
var ErrCancelled = errors.New("run cancelled")

// UnknownTopologyError is returned at build time when the requested topology
// name has not been registered. The run never starts.
type UnknownTopologyError struct {
	Name string
}

func (e *UnknownTopologyError) Error() string {
	return fmt.Sprintf("unknown topology %q", e.Name)
}

// UnknownAgentError is returned at build time when a requested role is not
// declared in the chosen topology, or when no agent implementation exists
// for it. The run never starts.
type UnknownAgentError struct {
	Role     string
	Topology string
}

func (e *UnknownAgentError) Error() string {
	if e.Topology == "" {
		return fmt.Sprintf("unknown agent role %q", e.Role)
	}
	return fmt.Sprintf("unknown agent role %q in topology %q", e.Role, e.Topology)
}

// AgentError wraps a failure of one role's execution: either a backend error
// or a role-logic mapping failure. It is fatal to that node.
type AgentError struct {
	Role string
	Err  error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Role, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// OrchestrationError reports a run in which one or more nodes failed. The
// successful siblings' outputs are discoverable through Partial but are
// never returned as a complete AggregatedResult.
type OrchestrationError struct {
	// FailedRoles maps each failed role to its error.
	FailedRoles map[string]error

	// Partial holds the outputs of the nodes that did complete.
	Partial map[string]PartialOutput
}

func (e *OrchestrationError) Error() string {
	roles := make([]string, 0, len(e.FailedRoles))
	for r := range e.FailedRoles {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	var b strings.Builder
	b.WriteString("orchestration failed for roles: ")
	for i, r := range roles {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s (%v)", r, e.FailedRoles[r])
	}
	return b.String()
}

// Roles returns the failed role names in sorted order.
func (e *OrchestrationError) Roles() []string {
	roles := make([]string, 0, len(e.FailedRoles))
	for r := range e.FailedRoles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}
