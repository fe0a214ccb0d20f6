package agent

import (
	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/model"
)

// ForRole resolves a role identifier to its agent implementation bound to
// the given backend. The set of roles is closed; an identifier outside it
// yields an UnknownAgentError.
func ForRole(role string, backend model.Backend) (core.Agent, error) {
	switch role {
	case graph.RoleSystemDesigner:
		return NewDesignAgent(backend), nil
	case graph.RoleAngularExpert:
		return NewTrackAgent(role, backend, func(o *TrackAgentOptions) {
			o.Stack = "Angular"
		}), nil
	case graph.RoleDotnetExpert:
		return NewTrackAgent(role, backend, func(o *TrackAgentOptions) {
			o.Stack = ".NET Core"
		}), nil
	default:
		return nil, &core.UnknownAgentError{Role: role}
	}
}
