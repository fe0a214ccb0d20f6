package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/model"
)

// TrackAgentOptions configure a TrackAgent instance.
type TrackAgentOptions struct {
	// Stack names the track's technology stack, reported as "tech_stack"
	// in the track output.
	Stack string
}

// TrackAgent turns the upstream system design into one delivery track's
// ordered implementation tasks. Its output is usable as the result's
// "<role>_tasks" value.
type TrackAgent struct {
	role    string
	stack   string
	backend model.Backend
}

// NewTrackAgent constructs a track-role agent bound to a backend.
func NewTrackAgent(role string, backend model.Backend, optFns ...func(o *TrackAgentOptions)) *TrackAgent {
	opts := TrackAgentOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TrackAgent{role: role, stack: opts.Stack, backend: backend}
}

// Role implements core.Agent.
func (a *TrackAgent) Role() string { return a.role }

// Run implements core.Agent.
func (a *TrackAgent) Run(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
	out, err := a.backend.Infer(ctx, model.Request{
		Role:     a.role,
		Task:     task,
		Upstream: upstream,
	})
	if err != nil {
		return nil, &core.AgentError{Role: a.role, Err: err}
	}

	po := mapOutput(out)
	items, err := coerceTaskItems(po["tasks"])
	if err != nil {
		return nil, &core.AgentError{Role: a.role, Err: err}
	}
	if len(items) == 0 {
		if out.Text == "" {
			return nil, &core.AgentError{Role: a.role, Err: fmt.Errorf("backend produced no implementation tasks")}
		}
		items = []core.TaskItem{{Type: "task", Description: out.Text}}
	}
	po["tasks"] = items

	if _, ok := po["tech_stack"]; !ok && a.stack != "" {
		po["tech_stack"] = a.stack
	}
	return po, nil
}

// coerceTaskItems normalizes the backend's task list. The mock backend
// emits typed items directly; live backends emit generic JSON that is
// re-decoded into the typed form.
func coerceTaskItems(v any) ([]core.TaskItem, error) {
	switch items := v.(type) {
	case nil:
		return nil, nil
	case []core.TaskItem:
		return items, nil
	default:
		data, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("invalid task list: %w", err)
		}
		var out []core.TaskItem
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("invalid task list: %w", err)
		}
		return out, nil
	}
}
