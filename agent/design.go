package agent

import (
	"context"
	"errors"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/model"
)

// DesignAgent produces the system design that every delivery track depends
// on. Its output is usable as the result's "design" value: a mapping with a
// design document plus the endpoint, data-model, component and service
// declarations the tracks derive their work from.
type DesignAgent struct {
	backend model.Backend
}

// NewDesignAgent constructs the design-role agent bound to a backend.
func NewDesignAgent(backend model.Backend) *DesignAgent {
	return &DesignAgent{backend: backend}
}

// Role implements core.Agent.
func (a *DesignAgent) Role() string { return graph.RoleSystemDesigner }

// Run implements core.Agent.
func (a *DesignAgent) Run(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
	out, err := a.backend.Infer(ctx, model.Request{
		Role:     a.Role(),
		Task:     task,
		Upstream: upstream,
	})
	if err != nil {
		return nil, &core.AgentError{Role: a.Role(), Err: err}
	}

	design := mapOutput(out)
	if _, ok := design["document"]; !ok {
		if out.Text == "" {
			return nil, &core.AgentError{Role: a.Role(), Err: errors.New("backend produced no design document")}
		}
		design["document"] = out.Text
	}
	return design, nil
}

// mapOutput lifts a backend output into a PartialOutput, preferring the
// structured form and falling back to the raw text.
func mapOutput(out model.Output) core.PartialOutput {
	if out.Structured != nil {
		po := make(core.PartialOutput, len(out.Structured))
		for k, v := range out.Structured {
			po[k] = v
		}
		return po
	}
	return core.PartialOutput{}
}
