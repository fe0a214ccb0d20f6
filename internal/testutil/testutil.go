// Package testutil provides lightweight fakes shared by package tests.
package testutil

import (
	"context"

	"github.com/tuandaodev/gptswarm/core"
)

// StubAgent is a minimal core.Agent for orchestration tests. RunFn defaults
// to returning an empty output.
type StubAgent struct {
	RoleName string
	RunFn    func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error)
}

// Role implements core.Agent.
func (s *StubAgent) Role() string { return s.RoleName }

// Run implements core.Agent.
func (s *StubAgent) Run(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
	if s.RunFn == nil {
		return core.PartialOutput{}, nil
	}
	return s.RunFn(ctx, task, upstream)
}

// Bind returns a graph.BindFunc-compatible resolver over the given stubs.
func Bind(agents ...*StubAgent) func(role string) (core.Agent, error) {
	byRole := make(map[string]*StubAgent, len(agents))
	for _, a := range agents {
		byRole[a.RoleName] = a
	}
	return func(role string) (core.Agent, error) {
		if a, ok := byRole[role]; ok {
			return a, nil
		}
		return nil, &core.UnknownAgentError{Role: role}
	}
}
