package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuandaodev/gptswarm/core"
)

func TestMockBackend_DesignShape(t *testing.T) {
	m := NewMockBackend()

	out, err := m.Infer(context.Background(), Request{
		Role: "system_designer",
		Task: core.Task{"feature": "product_listing"},
	})
	require.NoError(t, err)

	require.NotNil(t, out.Structured)
	assert.Contains(t, out.Structured["document"], "product_listing")
	assert.NotEmpty(t, out.Structured["api_endpoints"])
	assert.NotEmpty(t, out.Structured["data_models"])
	assert.NotEmpty(t, out.Structured["ui_components"])
	assert.NotEmpty(t, out.Structured["services"])
}

func TestMockBackend_Deterministic(t *testing.T) {
	m := NewMockBackend()
	req := Request{Role: "system_designer", Task: core.Task{"feature": "product_listing"}}

	a, err := m.Infer(context.Background(), req)
	require.NoError(t, err)
	b, err := m.Infer(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMockBackend_TrackShapes(t *testing.T) {
	m := NewMockBackend()
	ctx := context.Background()

	design, err := m.Infer(ctx, Request{Role: "system_designer", Task: core.Task{"feature": "product_listing"}})
	require.NoError(t, err)
	upstream := map[string]core.PartialOutput{"system_designer": design.Structured}

	frontend, err := m.Infer(ctx, Request{Role: "angular_expert", Task: core.Task{"feature": "product_listing"}, Upstream: upstream})
	require.NoError(t, err)
	assert.Equal(t, "Angular", frontend.Structured["tech_stack"])
	fTasks := frontend.Structured["tasks"].([]core.TaskItem)
	require.NotEmpty(t, fTasks)
	assert.Equal(t, "component", fTasks[0].Type)

	backend, err := m.Infer(ctx, Request{Role: "dotnet_expert", Task: core.Task{"feature": "product_listing"}, Upstream: upstream})
	require.NoError(t, err)
	assert.Equal(t, ".NET Core", backend.Structured["tech_stack"])
	bTasks := backend.Structured["tasks"].([]core.TaskItem)
	require.NotEmpty(t, bTasks)
	assert.Equal(t, "controller", bTasks[0].Type)
	assert.NotEmpty(t, bTasks[0].Endpoint)
}

func TestMockBackend_EmptyRoleIsPermanent(t *testing.T) {
	m := NewMockBackend()
	_, err := m.Infer(context.Background(), Request{Task: core.Task{"feature": "x"}})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindPermanent, be.Kind)
}

func TestMockBackend_ForcedFailure(t *testing.T) {
	boom := Permanent("test", errors.New("quota exhausted"))
	m := NewMockBackend(func(o *MockBackendOptions) {
		o.FailRoles = map[string]error{"dotnet_expert": boom}
	})

	_, err := m.Infer(context.Background(), Request{Role: "dotnet_expert", Task: core.Task{}})
	assert.ErrorIs(t, err, boom)

	_, err = m.Infer(context.Background(), Request{Role: "angular_expert", Task: core.Task{}})
	assert.NoError(t, err)
}

func TestMockBackend_RespectsCancelledContext(t *testing.T) {
	m := NewMockBackend()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Infer(ctx, Request{Role: "system_designer", Task: core.Task{}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderPrompt_Deterministic(t *testing.T) {
	req := Request{
		Role: "angular_expert",
		Task: core.Task{"feature": "checkout", "priority": "high"},
		Upstream: map[string]core.PartialOutput{
			"system_designer": {"document": "design"},
		},
	}
	assert.Equal(t, RenderPrompt(req), RenderPrompt(req))
	assert.Contains(t, RenderPrompt(req), "angular_expert")
	assert.Contains(t, RenderPrompt(req), "system_designer")
}
