package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuandaodev/gptswarm/core"
	"github.com/tuandaodev/gptswarm/internal/testutil"
)

func fullstackAgents() BindFunc {
	return testutil.Bind(
		&testutil.StubAgent{RoleName: RoleSystemDesigner},
		&testutil.StubAgent{RoleName: RoleAngularExpert},
		&testutil.StubAgent{RoleName: RoleDotnetExpert},
	)
}

func TestBuild_Fullstack(t *testing.T) {
	g, err := Build(FullstackTopology, []string{RoleSystemDesigner, RoleAngularExpert, RoleDotnetExpert}, fullstackAgents())
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, RoleSystemDesigner, g.DesignRole())
	assert.Empty(t, g.Node(RoleSystemDesigner).Preds())
	assert.Equal(t, []string{RoleSystemDesigner}, g.Node(RoleAngularExpert).Preds())
	assert.Equal(t, []string{RoleAngularExpert, RoleDotnetExpert}, g.Successors(RoleSystemDesigner))

	for _, n := range g.Nodes() {
		assert.Equal(t, StatusPending, n.Status())
		assert.NotNil(t, n.Agent())
	}
}

func TestBuild_UnknownTopology(t *testing.T) {
	_, err := Build("nope", []string{RoleSystemDesigner}, fullstackAgents())
	var unknown *core.UnknownTopologyError
	assert.True(t, errors.As(err, &unknown))
}

func TestBuild_UnknownAgent(t *testing.T) {
	_, err := Build(FullstackTopology, []string{RoleSystemDesigner, "rust_expert"}, fullstackAgents())
	var unknown *core.UnknownAgentError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "rust_expert", unknown.Role)
	assert.Equal(t, FullstackTopology, unknown.Topology)
}

func TestBuild_DuplicateRole(t *testing.T) {
	_, err := Build(FullstackTopology, []string{RoleAngularExpert, RoleAngularExpert}, fullstackAgents())
	assert.Error(t, err)
}

func TestBuild_NoRoles(t *testing.T) {
	_, err := Build(FullstackTopology, nil, fullstackAgents())
	assert.Error(t, err)
}

func TestBuild_DropsEdgesToUnrequestedPredecessors(t *testing.T) {
	// Without the designer, both tracks lose their only predecessor and
	// become roots that can start immediately.
	g, err := Build(FullstackTopology, []string{RoleAngularExpert, RoleDotnetExpert}, fullstackAgents())
	require.NoError(t, err)

	assert.Empty(t, g.Node(RoleAngularExpert).Preds())
	assert.Empty(t, g.Node(RoleDotnetExpert).Preds())
	assert.Equal(t, "", g.DesignRole())
}

func TestBuild_BindFailurePropagates(t *testing.T) {
	bindErr := errors.New("no implementation")
	_, err := Build(FullstackTopology, []string{RoleSystemDesigner}, func(string) (core.Agent, error) {
		return nil, bindErr
	})
	assert.ErrorIs(t, err, bindErr)
}

func TestSiblingPairs_Fullstack(t *testing.T) {
	g, err := Build(FullstackTopology, []string{RoleSystemDesigner, RoleAngularExpert, RoleDotnetExpert}, fullstackAgents())
	require.NoError(t, err)

	pairs := g.SiblingPairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]string{RoleAngularExpert, RoleDotnetExpert}, pairs[0])
}

func TestSiblingPairs_NoSharedPredecessor(t *testing.T) {
	// Tracks requested without the designer share no predecessor at all.
	g, err := Build(FullstackTopology, []string{RoleAngularExpert, RoleDotnetExpert}, fullstackAgents())
	require.NoError(t, err)
	assert.Empty(t, g.SiblingPairs())
}

func TestReachable(t *testing.T) {
	g, err := Build(FullstackTopology, []string{RoleSystemDesigner, RoleAngularExpert, RoleDotnetExpert}, fullstackAgents())
	require.NoError(t, err)

	assert.True(t, g.Reachable(RoleSystemDesigner, RoleAngularExpert))
	assert.False(t, g.Reachable(RoleAngularExpert, RoleSystemDesigner))
	assert.False(t, g.Reachable(RoleAngularExpert, RoleDotnetExpert))
}
