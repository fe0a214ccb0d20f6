// Package gptswarm provides a high-level façade over the task graph, engine
// and aggregation packages for coordinating a small swarm of specialized
// worker agents against one task. Most applications interact with this
// package by:
//  1. Creating a Swarm via New() with a topology name and the requested
//     agent roles (optionally overriding the backend, timeout or logger)
//  2. Submitting one task via Run (blocking) or Invoke (asynchronous)
//  3. Consuming the aggregated result: the design document, per-track task
//     lists and the synchronization points between tracks
//
// The default backend is the deterministic mock, safe for tests and offline
// development; naming a real model selects the matching live provider.
package gptswarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/tuandaodev/gptswarm/aggregate"
	"github.com/tuandaodev/gptswarm/agent"
	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/engine"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/internal/util"
	"github.com/tuandaodev/gptswarm/logging"
	"github.com/tuandaodev/gptswarm/model"
	anthropicbackend "github.com/tuandaodev/gptswarm/model/anthropic"
	openaibackend "github.com/tuandaodev/gptswarm/model/openai"
)

// Options configures the Swarm instance.
type Options struct {
	// ModelName selects the backend variant once at construction:
	// model.MockModelName picks the deterministic mock, a "claude" prefix
	// picks the Anthropic provider, anything else the OpenAI provider
	// parameterized by that identifier.
	ModelName string

	// CallTimeout bounds each live backend call.
	CallTimeout time.Duration

	// MaxRetries is the number of retries (beyond the first attempt)
	// applied to transient live backend failures.
	MaxRetries int

	// Backend, when set, is used directly and ModelName is ignored. Useful
	// for injecting test doubles.
	Backend model.Backend

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Swarm coordinates one named topology of agents. A Swarm is constructed
// once, validated eagerly, and may be reused for any number of runs; the
// task graph is rebuilt per run so node state is never shared.
type Swarm struct {
	topologyName string
	roles        []string
	agents       map[string]core.Agent
	backend      model.Backend
	scheduler    *engine.Scheduler
	aggregator   *aggregate.Aggregator
	logger       logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Swarm for the given agent roles and topology. Backend
// selection, topology lookup and role binding all happen here, so an
// unknown topology or role is reported before any run starts.
func New(roles []string, topologyName string, optFns ...func(o *Options)) (*Swarm, error) {
	opts := Options{
		ModelName:   model.MockModelName,
		CallTimeout: 60 * time.Second,
		MaxRetries:  2,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	topo, err := graph.Lookup(topologyName)
	if err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		backend = selectBackend(opts)
	}

	agents := make(map[string]core.Agent, len(roles))
	for _, role := range roles {
		if !topo.Declares(role) {
			return nil, &core.UnknownAgentError{Role: role, Topology: topologyName}
		}
		a, err := agent.ForRole(role, backend)
		if err != nil {
			return nil, err
		}
		agents[role] = a
	}

	return &Swarm{
		topologyName: topologyName,
		roles:        append([]string(nil), roles...),
		agents:       agents,
		backend:      backend,
		scheduler:    engine.New(func(o *engine.Options) { o.Logger = opts.Logger }),
		aggregator:   aggregate.New(func(o *aggregate.Options) { o.Logger = opts.Logger }),
		logger:       opts.Logger,
		activeRuns:   make(map[string]context.CancelFunc),
	}, nil
}

// selectBackend maps the configured model name to a backend variant. Live
// variants are wrapped with bounded retry on transient failures; the mock
// never needs it.
func selectBackend(opts Options) model.Backend {
	switch {
	case opts.ModelName == model.MockModelName:
		return model.NewMockBackend()
	case strings.HasPrefix(opts.ModelName, "claude"):
		b := anthropicbackend.New(func(o *anthropicbackend.Options) {
			o.Model = anthropicsdk.Model(opts.ModelName)
			o.CallTimeout = opts.CallTimeout
		})
		return model.WithRetry(b, func(o *model.RetryOptions) { o.MaxAttempts = opts.MaxRetries + 1 })
	default:
		b := openaibackend.New(func(o *openaibackend.Options) {
			o.Model = opts.ModelName
			o.CallTimeout = opts.CallTimeout
		})
		return model.WithRetry(b, func(o *model.RetryOptions) { o.MaxAttempts = opts.MaxRetries + 1 })
	}
}

// Backend returns the backend selected at construction.
func (s *Swarm) Backend() model.Backend { return s.backend }

// Run executes one task to completion and returns the aggregated result.
// It is the blocking equivalent of Invoke: either a complete result or a
// single error enumerating exactly which roles failed and why.
func (s *Swarm) Run(ctx context.Context, task core.Task) (core.AggregatedResult, error) {
	_, resCh, errCh := s.Invoke(ctx, task)
	select {
	case res := <-resCh:
		return res, nil
	case err := <-errCh:
		return core.AggregatedResult{}, err
	}
}

// Invoke starts an asynchronous run, returning its identifier plus result
// and error channels; exactly one of the two receives a value. The run can
// be stopped early through ctx or Cancel.
func (s *Swarm) Invoke(ctx context.Context, task core.Task) (string, <-chan core.AggregatedResult, <-chan error) {
	runID := util.NewID()
	resCh := make(chan core.AggregatedResult, 1)
	errCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.activeRuns[runID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.activeRuns, runID)
			s.mu.Unlock()
		}()

		start := time.Now()
		res, err := s.execute(ctx, task)
		if err != nil {
			s.logger.Error("run failed", "run_id", runID, "topology", s.topologyName, "duration", time.Since(start), "error", err)
			errCh <- err
			return
		}
		s.logger.Info("run completed", "run_id", runID, "topology", s.topologyName, "duration", time.Since(start))
		resCh <- res
	}()

	return runID, resCh, errCh
}

// Cancel stops a running invocation by ID. In-flight backend calls observe
// the cancellation through their context.
func (s *Swarm) Cancel(runID string) error {
	s.mu.Lock()
	cancel, exists := s.activeRuns[runID]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}
	cancel()
	return nil
}

func (s *Swarm) execute(ctx context.Context, task core.Task) (core.AggregatedResult, error) {
	task = task.Clone()

	g, err := graph.Build(s.topologyName, s.roles, func(role string) (core.Agent, error) {
		a, ok := s.agents[role]
		if !ok {
			return nil, &core.UnknownAgentError{Role: role, Topology: s.topologyName}
		}
		return a, nil
	})
	if err != nil {
		return core.AggregatedResult{}, err
	}

	outputs, err := s.scheduler.Execute(ctx, g, task)
	if err != nil {
		return core.AggregatedResult{}, err
	}
	return s.aggregator.Aggregate(task, outputs, g), nil
}
