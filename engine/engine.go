package engine

import (
	"context"
	"fmt"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/logging"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives scheduling diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Scheduler drives one TaskGraph at a time through its node lifecycle.
// A Scheduler holds no per-run state and is safe for concurrent use with
// distinct graphs.
type Scheduler struct {
	logger logging.Logger
}

// New constructs a Scheduler with optional overrides.
func New(optFns ...func(o *Options)) *Scheduler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Scheduler{logger: opts.Logger}
}

// completion is the fan-in message sent by a node goroutine when its agent
// call settles.
type completion struct {
	role string
	out  core.PartialOutput
	err  error
}

// Execute runs every node of the graph to a terminal state and returns the
// outputs keyed by role.
//
// Independent nodes run fully in parallel; a node never starts before all
// its predecessors are done, and its upstream snapshot is assembled by the
// scheduling loop before launch so output visibility is ordered. On any
// node failure the run finishes draining in-flight siblings, skips
// dependents, and reports an OrchestrationError. Cancellation stops further
// launches, signals in-flight agent calls through ctx, and yields an error
// wrapping core.ErrCancelled.
func (s *Scheduler) Execute(ctx context.Context, g *graph.TaskGraph, task core.Task) (map[string]core.PartialOutput, error) {
	done := make(chan completion, g.Len())
	outputs := make(map[string]core.PartialOutput, g.Len())
	failures := make(map[string]error)
	inFlight := 0

	// Nodes with no predecessors start ready.
	for _, n := range g.Nodes() {
		if len(n.Preds()) == 0 {
			if err := s.transition(n, graph.StatusReady); err != nil {
				return nil, err
			}
		}
	}

	ctxDone := ctx.Done()
	cancelled := false

	for {
		// Observe cancellation before launching anything, so a ready node is
		// never started after the cancellation timestamp even when a
		// completion and the cancellation race on the same select.
		if !cancelled {
			select {
			case <-ctxDone:
				cancelled = true
				ctxDone = nil
				if err := s.skipUnstarted(g); err != nil {
					return nil, err
				}
			default:
			}
		}
		if !cancelled {
			for _, n := range g.Nodes() {
				if n.Status() != graph.StatusReady {
					continue
				}
				if err := s.launch(ctx, g, n, task, done); err != nil {
					return nil, err
				}
				inFlight++
			}
		}
		if inFlight == 0 {
			break
		}

		select {
		case <-ctxDone:
			// Stop launching; in-flight calls observe ctx and settle.
			cancelled = true
			ctxDone = nil
			if err := s.skipUnstarted(g); err != nil {
				return nil, err
			}

		case c := <-done:
			inFlight--
			n := g.Node(c.role)
			if c.err != nil {
				if err := n.Fail(c.err); err != nil {
					return nil, err
				}
				s.logger.Debug("node failed", "role", c.role, "error", c.err)
				failures[c.role] = c.err
				if err := s.skipDependents(g, c.role); err != nil {
					return nil, err
				}
				continue
			}
			if err := n.Complete(c.out); err != nil {
				return nil, err
			}
			s.logger.Debug("node done", "role", c.role)
			outputs[c.role] = c.out
			if err := s.promoteDependents(g, c.role); err != nil {
				return nil, err
			}
		}
	}

	if cancelled {
		return nil, fmt.Errorf("%w: %v", core.ErrCancelled, context.Cause(ctx))
	}
	if len(failures) > 0 {
		return nil, &core.OrchestrationError{FailedRoles: failures, Partial: outputs}
	}
	return outputs, nil
}

// launch moves a ready node to running and spawns its agent call. The
// upstream snapshot is taken here, under the scheduling loop, after every
// predecessor reached done.
func (s *Scheduler) launch(ctx context.Context, g *graph.TaskGraph, n *graph.Node, task core.Task, done chan<- completion) error {
	if err := s.transition(n, graph.StatusRunning); err != nil {
		return err
	}

	preds := n.Preds()
	upstream := make(map[string]core.PartialOutput, len(preds))
	for _, p := range preds {
		upstream[p] = g.Node(p).Output()
	}

	role, a := n.Role(), n.Agent()
	go func() {
		out, err := a.Run(ctx, task, upstream)
		done <- completion{role: role, out: out, err: err}
	}()
	return nil
}

// promoteDependents marks each pending successor of role ready once all of
// its predecessors are done.
func (s *Scheduler) promoteDependents(g *graph.TaskGraph, role string) error {
	for _, succ := range g.Successors(role) {
		n := g.Node(succ)
		if n.Status() != graph.StatusPending {
			continue
		}
		satisfied := true
		for _, p := range n.Preds() {
			if g.Node(p).Status() != graph.StatusDone {
				satisfied = false
				break
			}
		}
		if satisfied {
			if err := s.transition(n, graph.StatusReady); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipDependents transitively marks every unstarted node downstream of a
// failed role as skipped so it is never promoted to ready.
func (s *Scheduler) skipDependents(g *graph.TaskGraph, role string) error {
	for _, succ := range g.Successors(role) {
		n := g.Node(succ)
		switch n.Status() {
		case graph.StatusPending, graph.StatusReady:
			if err := s.transition(n, graph.StatusSkipped); err != nil {
				return err
			}
			if err := s.skipDependents(g, succ); err != nil {
				return err
			}
		case graph.StatusRunning:
			// A running dependent of a failed node means ordering broke.
			return fmt.Errorf("node %s running while predecessor %s failed", succ, role)
		}
	}
	return nil
}

// skipUnstarted marks every node not yet launched as skipped after
// cancellation is observed.
func (s *Scheduler) skipUnstarted(g *graph.TaskGraph) error {
	for _, n := range g.Nodes() {
		switch n.Status() {
		case graph.StatusPending, graph.StatusReady:
			if err := s.transition(n, graph.StatusSkipped); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) transition(n *graph.Node, to graph.Status) error {
	from := n.Status()
	if err := n.Transition(to); err != nil {
		return err
	}
	s.logger.Debug("node transition", "role", n.Role(), "from", from.String(), "to", to.String())
	return nil
}
