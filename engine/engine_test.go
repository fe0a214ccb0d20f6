package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/graph"
	"github.com/tuandaodev/gptswarm/internal/testutil"
)

func buildFullstack(t *testing.T, agents ...*testutil.StubAgent) *graph.TaskGraph {
	t.Helper()
	roles := make([]string, len(agents))
	for i, a := range agents {
		roles[i] = a.RoleName
	}
	g, err := graph.Build(graph.FullstackTopology, roles, testutil.Bind(agents...))
	require.NoError(t, err)
	return g
}

func TestExecute_Success(t *testing.T) {
	designer := &testutil.StubAgent{
		RoleName: graph.RoleSystemDesigner,
		RunFn: func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
			assert.Empty(t, upstream)
			return core.PartialOutput{"document": "design for " + task["feature"].(string)}, nil
		},
	}
	track := func(role string) *testutil.StubAgent {
		return &testutil.StubAgent{
			RoleName: role,
			RunFn: func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
				// Predecessor output must be visible before the node starts.
				require.NotNil(t, upstream[graph.RoleSystemDesigner])
				return core.PartialOutput{"tasks": []core.TaskItem{{Type: "task", Name: role}}}, nil
			},
		}
	}

	g := buildFullstack(t, designer, track(graph.RoleAngularExpert), track(graph.RoleDotnetExpert))
	outputs, err := New().Execute(context.Background(), g, core.Task{"feature": "product_listing"})
	require.NoError(t, err)

	assert.Len(t, outputs, 3)
	assert.Equal(t, "design for product_listing", outputs[graph.RoleSystemDesigner]["document"])
	for _, n := range g.Nodes() {
		assert.Equal(t, graph.StatusDone, n.Status())
	}
}

func TestExecute_TracksRunConcurrently(t *testing.T) {
	started := make(chan string, 2)
	bothStarted := make(chan struct{})

	go func() {
		<-started
		<-started
		close(bothStarted)
	}()

	track := func(role string) *testutil.StubAgent {
		return &testutil.StubAgent{
			RoleName: role,
			RunFn: func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
				started <- role
				// Block until the sibling has started too. If the engine
				// serialized the tracks this would never unblock.
				select {
				case <-bothStarted:
					return core.PartialOutput{"tasks": []core.TaskItem{{Type: "task", Name: role}}}, nil
				case <-time.After(5 * time.Second):
					return nil, errors.New("sibling track never started")
				}
			},
		}
	}

	designer := &testutil.StubAgent{RoleName: graph.RoleSystemDesigner}
	g := buildFullstack(t, designer, track(graph.RoleAngularExpert), track(graph.RoleDotnetExpert))

	_, err := New().Execute(context.Background(), g, core.Task{})
	require.NoError(t, err)
}

func TestExecute_OneTrackFails(t *testing.T) {
	cause := &core.AgentError{Role: graph.RoleDotnetExpert, Err: errors.New("backend quota")}

	designer := &testutil.StubAgent{RoleName: graph.RoleSystemDesigner}
	angular := &testutil.StubAgent{
		RoleName: graph.RoleAngularExpert,
		RunFn: func(context.Context, core.Task, map[string]core.PartialOutput) (core.PartialOutput, error) {
			return core.PartialOutput{"tasks": []core.TaskItem{{Type: "component"}}}, nil
		},
	}
	dotnet := &testutil.StubAgent{
		RoleName: graph.RoleDotnetExpert,
		RunFn: func(context.Context, core.Task, map[string]core.PartialOutput) (core.PartialOutput, error) {
			return nil, cause
		},
	}

	g := buildFullstack(t, designer, angular, dotnet)
	outputs, err := New().Execute(context.Background(), g, core.Task{})
	require.Error(t, err)
	assert.Nil(t, outputs)

	var orch *core.OrchestrationError
	require.True(t, errors.As(err, &orch))
	assert.Equal(t, []string{graph.RoleDotnetExpert}, orch.Roles())
	assert.ErrorIs(t, orch.FailedRoles[graph.RoleDotnetExpert], cause)

	// The sibling finished; its work is discoverable only via the error.
	assert.Contains(t, orch.Partial, graph.RoleAngularExpert)
	assert.Equal(t, graph.StatusDone, g.Node(graph.RoleAngularExpert).Status())
	assert.Equal(t, graph.StatusFailed, g.Node(graph.RoleDotnetExpert).Status())
}

func TestExecute_FailedRootSkipsDependents(t *testing.T) {
	cause := errors.New("design backend down")
	designer := &testutil.StubAgent{
		RoleName: graph.RoleSystemDesigner,
		RunFn: func(context.Context, core.Task, map[string]core.PartialOutput) (core.PartialOutput, error) {
			return nil, cause
		},
	}
	trackRan := false
	track := &testutil.StubAgent{
		RoleName: graph.RoleAngularExpert,
		RunFn: func(context.Context, core.Task, map[string]core.PartialOutput) (core.PartialOutput, error) {
			trackRan = true
			return core.PartialOutput{}, nil
		},
	}

	g := buildFullstack(t, designer, track)
	_, err := New().Execute(context.Background(), g, core.Task{})
	require.Error(t, err)

	var orch *core.OrchestrationError
	require.True(t, errors.As(err, &orch))
	assert.Equal(t, []string{graph.RoleSystemDesigner}, orch.Roles())
	assert.False(t, trackRan)
	assert.Equal(t, graph.StatusSkipped, g.Node(graph.RoleAngularExpert).Status())
}

func TestExecute_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 2)
	track := func(role string) *testutil.StubAgent {
		return &testutil.StubAgent{
			RoleName: role,
			RunFn: func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
				started <- struct{}{}
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
	}

	designer := &testutil.StubAgent{RoleName: graph.RoleSystemDesigner}
	g := buildFullstack(t, designer, track(graph.RoleAngularExpert), track(graph.RoleDotnetExpert))

	go func() {
		<-started
		<-started
		cancel()
	}()

	_, err := New().Execute(ctx, g, core.Task{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCancelled)

	// Every node settled; nothing is left mid-transition.
	for _, n := range g.Nodes() {
		assert.True(t, n.Status().Terminal(), "node %s status %s", n.Role(), n.Status())
	}
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	designer := &testutil.StubAgent{
		RoleName: graph.RoleSystemDesigner,
		RunFn: func(ctx context.Context, task core.Task, upstream map[string]core.PartialOutput) (core.PartialOutput, error) {
			ran = true
			return nil, ctx.Err()
		},
	}

	g := buildFullstack(t, designer)
	_, err := New().Execute(ctx, g, core.Task{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.False(t, ran)
	assert.Equal(t, graph.StatusSkipped, g.Node(graph.RoleSystemDesigner).Status())
}
