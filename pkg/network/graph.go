package network

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrCycleDetected is returned when adding a dependency would introduce a
// cycle in the dependency graph.
var ErrCycleDetected = errors.New("network: dependency would introduce a cycle")

// ErrSelfDependency is returned when an agent is made to depend on itself.
var ErrSelfDependency = errors.New("network: agent cannot depend on itself")

// DependencyGraph is an adjacency-list directed graph over agent ids. Edges
// point from a dependency toward its dependent (the direction state changes
// propagate). It holds no agent data of its own; AgentHandle.Dependencies/
// Dependents mirror the same edges for O(1) per-agent lookups, and the two
// must always be kept in sync by NetworkCoordinator.
type DependencyGraph struct {
	// edges[from] is the set of nodes that depend on "from".
	edges map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewDependencyGraph returns an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{edges: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// AddNode registers id with the graph if not already present.
func (g *DependencyGraph) AddNode(id uuid.UUID) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = make(map[uuid.UUID]struct{})
	}
}

// RemoveNode removes id and every edge touching it.
func (g *DependencyGraph) RemoveNode(id uuid.UUID) {
	delete(g.edges, id)
	for _, deps := range g.edges {
		delete(deps, id)
	}
}

// AddEdge records that dependent depends on dependency, i.e. dependency must
// reach a stable state before dependent is allowed to run. Returns
// ErrSelfDependency or ErrCycleDetected without mutating the graph if the
// edge is invalid.
func (g *DependencyGraph) AddEdge(dependency, dependent uuid.UUID) error {
	if dependency == dependent {
		return ErrSelfDependency
	}
	g.AddNode(dependency)
	g.AddNode(dependent)
	if g.reaches(dependent, dependency) {
		return fmt.Errorf("%w: %s -> %s", ErrCycleDetected, dependency, dependent)
	}
	g.edges[dependency][dependent] = struct{}{}
	return nil
}

// RemoveEdge removes the dependency -> dependent edge, if present.
func (g *DependencyGraph) RemoveEdge(dependency, dependent uuid.UUID) {
	if deps, ok := g.edges[dependency]; ok {
		delete(deps, dependent)
	}
}

// reaches reports whether a depth-first walk from start can reach target,
// following dependency -> dependent edges.
func (g *DependencyGraph) reaches(start, target uuid.UUID) bool {
	if start == target {
		return true
	}
	visited := make(map[uuid.UUID]struct{})
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		if n == target {
			return true
		}
		for next := range g.edges[n] {
			stack = append(stack, next)
		}
	}
	return false
}

// Dependents returns the ids that directly depend on id.
func (g *DependencyGraph) Dependents(id uuid.UUID) []uuid.UUID {
	deps := g.edges[id]
	out := make([]uuid.UUID, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	return out
}

// AffectedAgents returns every id transitively reachable from id by
// following dependency -> dependent edges — the set a state change to id
// may need to propagate to.
func (g *DependencyGraph) AffectedAgents(id uuid.UUID) []uuid.UUID {
	visited := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	stack := append([]uuid.UUID{}, g.Dependents(id)...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		out = append(out, n)
		stack = append(stack, g.Dependents(n)...)
	}
	return out
}

// HasNode reports whether id is registered in the graph.
func (g *DependencyGraph) HasNode(id uuid.UUID) bool {
	_, ok := g.edges[id]
	return ok
}
