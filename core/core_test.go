package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Clone(t *testing.T) {
	orig := Task{"feature": "checkout"}
	c := orig.Clone()
	c["feature"] = "mutated"

	assert.Equal(t, "checkout", orig["feature"])
	assert.Nil(t, Task(nil).Clone())
}

func TestPartialOutput_Tasks(t *testing.T) {
	items := []TaskItem{{Type: "component", Name: "CartView"}}
	po := PartialOutput{"tasks": items}

	assert.Equal(t, items, po.Tasks())
	assert.Nil(t, PartialOutput{"tasks": "not a list"}.Tasks())
	assert.Nil(t, PartialOutput(nil).Tasks())
}

func TestAggregatedResult_Map(t *testing.T) {
	res := AggregatedResult{
		Design: PartialOutput{"document": "d"},
		Tracks: map[string]PartialOutput{
			"angular_expert": {"tasks": []TaskItem{{Type: "component"}}},
			"dotnet_expert":  {"notes": "no tasks key"},
		},
		SyncPoints: []SyncPoint{},
	}

	m := res.Map()
	assert.Equal(t, res.Design, m["design"])
	assert.Equal(t, []TaskItem{{Type: "component"}}, m["angular_expert_tasks"])
	// A track without a task list is exposed wholesale.
	assert.Equal(t, res.Tracks["dotnet_expert"], m["dotnet_expert_tasks"])
	assert.Equal(t, []SyncPoint{}, m["sync_points"])
}

func TestAggregatedResult_MarshalStable(t *testing.T) {
	res := AggregatedResult{
		Design:     PartialOutput{"document": "d"},
		Tracks:     map[string]PartialOutput{"angular_expert": {"tasks": []TaskItem{{Type: "service", Endpoint: "/api/x"}}}},
		SyncPoints: []SyncPoint{{ProducingTrack: "a", ConsumingTrack: "b", Contract: "c"}},
	}

	x, err := json.Marshal(res)
	require.NoError(t, err)
	y, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestOrchestrationError_SortsRoles(t *testing.T) {
	err := &OrchestrationError{FailedRoles: map[string]error{
		"dotnet_expert":  errors.New("quota"),
		"angular_expert": errors.New("timeout"),
	}}

	assert.Equal(t, []string{"angular_expert", "dotnet_expert"}, err.Roles())
	assert.Contains(t, err.Error(), "angular_expert (timeout); dotnet_expert (quota)")
}

func TestAgentError_Unwrap(t *testing.T) {
	cause := errors.New("backend down")
	err := &AgentError{Role: "system_designer", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "system_designer")
}

func TestUnknownErrors(t *testing.T) {
	assert.Contains(t, (&UnknownTopologyError{Name: "x"}).Error(), `"x"`)
	assert.Contains(t, (&UnknownAgentError{Role: "r", Topology: "t"}).Error(), `"t"`)
	assert.Contains(t, (&UnknownAgentError{Role: "r"}).Error(), `"r"`)
}
