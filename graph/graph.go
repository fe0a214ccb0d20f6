package graph

import (
	"fmt"
	"sort"

	"github.com/tuandaodev/gptswarm/core"
)

// BindFunc resolves a role to its agent implementation. It is invoked once
// per requested role at build time, never during scheduling.
type BindFunc func(role string) (core.Agent, error)

// TaskGraph is the projection of a topology onto the requested role set: one
// Node per requested role, with edges to predecessors outside the requested
// set dropped (such nodes become additional roots and run immediately).
//
// A TaskGraph is built fresh per run and must not be shared across runs.
type TaskGraph struct {
	topology *Topology
	roles    []string // requested order
	nodes    map[string]*Node
	succs    map[string][]string
}

// Build validates the requested roles against the named topology and binds
// one agent per role. Every requested role must be declared in the topology
// and requested at most once.
func Build(topologyName string, roles []string, bind BindFunc) (*TaskGraph, error) {
	topo, err := Lookup(topologyName)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("topology %s: no agent roles requested", topologyName)
	}

	requested := make(map[string]bool, len(roles))
	for _, role := range roles {
		if !topo.Declares(role) {
			return nil, &core.UnknownAgentError{Role: role, Topology: topologyName}
		}
		if requested[role] {
			return nil, fmt.Errorf("topology %s: role %s requested twice", topologyName, role)
		}
		requested[role] = true
	}

	g := &TaskGraph{
		topology: topo,
		roles:    append([]string(nil), roles...),
		nodes:    make(map[string]*Node, len(roles)),
		succs:    make(map[string][]string, len(roles)),
	}
	for _, role := range roles {
		var preds []string
		for _, p := range topo.Predecessors(role) {
			// A predecessor declared by the topology but not requested is
			// dropped; the node runs without it.
			if requested[p] {
				preds = append(preds, p)
			}
		}
		sort.Strings(preds)
		g.nodes[role] = &Node{role: role, agent: nil, preds: preds, status: StatusPending}
		for _, p := range preds {
			g.succs[p] = append(g.succs[p], role)
		}
	}

	// The topology registry rejects cycles, so a cyclic projection means
	// registry state was corrupted.
	projected := make(map[string][]string, len(roles))
	for role, n := range g.nodes {
		projected[role] = n.preds
	}
	if cycle := findCycle(projected); cycle != nil {
		return nil, fmt.Errorf("topology %s: projected graph has cycle %v", topologyName, cycle)
	}

	for _, role := range roles {
		agent, err := bind(role)
		if err != nil {
			return nil, err
		}
		g.nodes[role].agent = agent
	}
	return g, nil
}

// Topology returns the template this graph was built from.
func (g *TaskGraph) Topology() *Topology { return g.topology }

// Len returns the number of nodes.
func (g *TaskGraph) Len() int { return len(g.nodes) }

// Roles returns the requested roles in request order.
func (g *TaskGraph) Roles() []string { return append([]string(nil), g.roles...) }

// Node returns the node for a role, or nil.
func (g *TaskGraph) Node(role string) *Node { return g.nodes[role] }

// Nodes returns all nodes in request order.
func (g *TaskGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.roles))
	for _, role := range g.roles {
		out = append(out, g.nodes[role])
	}
	return out
}

// Successors returns the roles that directly depend on role, sorted.
func (g *TaskGraph) Successors(role string) []string {
	succs := append([]string(nil), g.succs[role]...)
	sort.Strings(succs)
	return succs
}

// DesignRole returns the topology root if it was requested, else "".
func (g *TaskGraph) DesignRole() string {
	if _, ok := g.nodes[g.topology.Root()]; ok {
		return g.topology.Root()
	}
	return ""
}

// Reachable reports whether to is reachable from from along successor edges.
func (g *TaskGraph) Reachable(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.succs[cur] {
			if s == to {
				return true
			}
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// SiblingPairs returns every unordered pair of roles that share at least one
// immediate predecessor and have no dependency path between each other,
// which is exactly the set of pairs whose execution windows may overlap and
// therefore need a synchronization contract. Pairs are returned in
// lexicographic order.
func (g *TaskGraph) SiblingPairs() [][2]string {
	roles := append([]string(nil), g.roles...)
	sort.Strings(roles)

	var pairs [][2]string
	for i := 0; i < len(roles); i++ {
		for j := i + 1; j < len(roles); j++ {
			a, b := g.nodes[roles[i]], g.nodes[roles[j]]
			if !sharePred(a.preds, b.preds) {
				continue
			}
			if g.Reachable(a.role, b.role) || g.Reachable(b.role, a.role) {
				continue
			}
			pairs = append(pairs, [2]string{a.role, b.role})
		}
	}
	return pairs
}

func sharePred(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if set[p] {
			return true
		}
	}
	return false
}
