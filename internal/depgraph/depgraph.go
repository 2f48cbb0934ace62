// Package depgraph computes deterministic topological orderings of a
// schema's tables from their foreign-key relationships (spec §4.3).
package depgraph

import (
	"sort"

	"github.com/pgschemaplan/pgschemaplan/internal/schemamodel"
)

// Graph is the foreign-key dependency graph of a schema: an edge from A to
// B means A references B (A depends on B). Self-references are dropped at
// construction time since PostgreSQL satisfies them within a single CREATE
// TABLE.
type Graph struct {
	tables  []string            // all table names, for cycle fallback and stable iteration
	deps    map[string][]string // table -> tables it depends on (outgoing FK edges)
	rdeps   map[string][]string // table -> tables that depend on it (incoming FK edges)
}

// Build analyzes each table's foreign keys and constructs the dependency
// graph.
func Build(schema *schemamodel.Schema) *Graph {
	g := &Graph{
		deps:  make(map[string][]string),
		rdeps: make(map[string][]string),
	}

	for _, t := range schema.Tables {
		g.tables = append(g.tables, t.Name)
		g.deps[t.Name] = nil
		g.rdeps[t.Name] = nil
	}

	for _, t := range schema.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.ReferencedTable == t.Name {
				continue // self-reference, ignored for ordering
			}
			if !contains(g.deps[t.Name], fk.ReferencedTable) {
				g.deps[t.Name] = append(g.deps[t.Name], fk.ReferencedTable)
			}
			if !contains(g.rdeps[fk.ReferencedTable], t.Name) {
				g.rdeps[fk.ReferencedTable] = append(g.rdeps[fk.ReferencedTable], t.Name)
			}
		}
	}

	return g
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// CreationOrder returns tables ordered so that every FK target precedes its
// source: tables with zero remaining dependencies emit first, via Kahn's
// algorithm on in-degree counted by g.deps.
func (g *Graph) CreationOrder() ([]string, error) {
	return g.kahn(g.deps, g.rdeps)
}

// DeletionOrder returns tables ordered so that every FK source precedes its
// target: leaves (nothing depends on them) emit first, via Kahn's algorithm
// run on the reverse edges.
func (g *Graph) DeletionOrder() ([]string, error) {
	return g.kahn(g.rdeps, g.deps)
}

// kahn runs Kahn's algorithm where forward counts in-degree from `counts`
// and, as a node emits, decrements its neighbors found via `neighbors`
// (the edge map in the opposite direction). Ties are broken by table name
// ascending for determinism.
func (g *Graph) kahn(counts, neighbors map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(g.tables))
	for _, t := range g.tables {
		inDegree[t] = len(counts[t])
	}

	var ready []string
	for _, t := range g.tables {
		if inDegree[t] == 0 {
			ready = append(ready, t)
		}
	}
	sort.Strings(ready)

	out := make([]string, 0, len(g.tables))
	for len(ready) > 0 {
		sort.Strings(ready)
		current := ready[0]
		ready = ready[1:]
		out = append(out, current)

		var newlyReady []string
		for _, dependent := range neighbors[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
	}

	if len(out) != len(g.tables) {
		return nil, &schemamodel.CycleError{Cycles: g.FindCycles()}
	}
	return out, nil
}

// FindCycles enumerates the distinct cycles present in the dependency
// graph via DFS, for diagnostic error messages. Each returned cycle starts
// and ends at the same table name.
func (g *Graph) FindCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	sortedTables := append([]string(nil), g.tables...)
	sort.Strings(sortedTables)

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		deps := append([]string(nil), g.deps[node]...)
		sort.Strings(deps)
		for _, next := range deps {
			if onStack[next] {
				cycle := cycleFrom(stack, next)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[node] = false
	}

	for _, t := range sortedTables {
		if !visited[t] {
			visit(t)
		}
	}
	return cycles
}

// cycleFrom extracts the cycle starting at `start` within the current DFS
// stack, closing it back to start.
func cycleFrom(stack []string, start string) []string {
	for i, t := range stack {
		if t == start {
			cycle := append([]string(nil), stack[i:]...)
			cycle = append(cycle, start)
			return cycle
		}
	}
	return nil
}
