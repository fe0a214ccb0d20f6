package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tuandaodev/gptswarm/core"
)

// FullstackTopology is the name of the built-in topology: one design role
// fanned out to independent delivery tracks.
const FullstackTopology = "fullstack"

// Roles declared by the built-in fullstack topology.
const (
	RoleSystemDesigner = "system_designer"
	RoleAngularExpert  = "angular_expert"
	RoleDotnetExpert   = "dotnet_expert"
)

// Topology is a named DAG template mapping roles to their direct
// predecessors. Topologies are immutable after construction.
type Topology struct {
	name string
	deps map[string][]string
	root string
}

// NewTopology validates and constructs a topology. Every predecessor must
// itself be a declared role, the graph must be acyclic, and exactly one role
// must have no predecessors (the design root).
func NewTopology(name string, deps map[string][]string) (*Topology, error) {
	if name == "" {
		return nil, fmt.Errorf("topology name must not be empty")
	}

	var roots []string
	for role, preds := range deps {
		for _, p := range preds {
			if _, ok := deps[p]; !ok {
				return nil, fmt.Errorf("topology %s: role %s depends on undeclared role %s", name, role, p)
			}
		}
		if len(preds) == 0 {
			roots = append(roots, role)
		}
	}
	if len(roots) != 1 {
		sort.Strings(roots)
		return nil, fmt.Errorf("topology %s: expected exactly one root role, found %d %v", name, len(roots), roots)
	}
	if cycle := findCycle(deps); cycle != nil {
		return nil, fmt.Errorf("topology %s: cycle detected: %v", name, cycle)
	}

	copied := make(map[string][]string, len(deps))
	for role, preds := range deps {
		copied[role] = append([]string(nil), preds...)
	}
	return &Topology{name: name, deps: copied, root: roots[0]}, nil
}

// Name returns the topology's registered name.
func (t *Topology) Name() string { return t.name }

// Root returns the single role with no predecessors.
func (t *Topology) Root() string { return t.root }

// Declares reports whether role is part of this topology.
func (t *Topology) Declares(role string) bool {
	_, ok := t.deps[role]
	return ok
}

// Predecessors returns the direct predecessors declared for role.
func (t *Topology) Predecessors(role string) []string {
	return append([]string(nil), t.deps[role]...)
}

// Roles returns all declared roles in sorted order.
func (t *Topology) Roles() []string {
	roles := make([]string, 0, len(t.deps))
	for r := range t.deps {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// findCycle detects a dependency cycle via depth-first search, returning one
// offending path or nil.
func findCycle(deps map[string][]string) []string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(deps))

	var path []string
	var visit func(role string) []string
	visit = func(role string) []string {
		color[role] = grey
		path = append(path, role)
		for _, p := range deps[role] {
			switch color[p] {
			case grey:
				return append(path, p)
			case white:
				if c := visit(p); c != nil {
					return c
				}
			}
		}
		path = path[:len(path)-1]
		color[role] = black
		return nil
	}

	roles := make([]string, 0, len(deps))
	for r := range deps {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for _, r := range roles {
		if color[r] == white {
			path = path[:0]
			if c := visit(r); c != nil {
				return c
			}
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Topology{}
)

// Register adds a topology to the global registry, replacing any previous
// registration under the same name.
func Register(t *Topology) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.Name()] = t
}

// Lookup resolves a registered topology by name.
func Lookup(name string) (*Topology, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	if !ok {
		return nil, &core.UnknownTopologyError{Name: name}
	}
	return t, nil
}

func init() {
	t, err := NewTopology(FullstackTopology, map[string][]string{
		RoleSystemDesigner: {},
		RoleAngularExpert:  {RoleSystemDesigner},
		RoleDotnetExpert:   {RoleSystemDesigner},
	})
	if err != nil {
		panic(err)
	}
	Register(t)
}
