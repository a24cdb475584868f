// Package graph is the in-memory model of a parsed flow: vertices, typed
// edges, and the derived successor/predecessor maps the scheduler and the
// build cache walk. A Graph exclusively owns its vertices and edges;
// everything outside refers to them by id.
package graph

import (
	"github.com/vk/flowgrid/internal/contract"
)

// Graph owns the vertex and edge sets of one flow.
type Graph struct {
	vertices map[string]*Vertex
	order    []string
	edges    []*Edge

	// Derived maps, rebuilt lazily after structural changes, never per run.
	succ     map[string][]string
	pred     map[string][]string
	inEdges  map[string][]*Edge
	outEdges map[string][]*Edge
	dirty    bool

	// Per-run activation overrides: force-included and force-excluded
	// vertex ids (e.g. downstream of a short-circuiting branch).
	activated   map[string]struct{}
	inactivated map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		vertices:    make(map[string]*Vertex),
		activated:   make(map[string]struct{}),
		inactivated: make(map[string]struct{}),
		dirty:       true,
	}
}

// AddVertex adds v to the graph. A duplicate id is a structural error.
func (g *Graph) AddVertex(v *Vertex) error {
	if _, exists := g.vertices[v.ID]; exists {
		return structureErrorf("duplicate vertex id '%s'", v.ID)
	}
	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)
	g.dirty = true
	return nil
}

// AddEdge validates e against both endpoints and the type contract, then
// adds it. Unknown endpoints are structural errors; a declared-type
// mismatch is an IncompatibleEdgeError naming both vertex types and the
// type sets involved.
func (g *Graph) AddEdge(e *Edge) error {
	src, ok := g.vertices[e.Source]
	if !ok {
		return structureErrorf("edge %s references unknown source vertex '%s'", e.ID(), e.Source)
	}
	tgt, ok := g.vertices[e.Target]
	if !ok {
		return structureErrorf("edge %s references unknown target vertex '%s'", e.ID(), e.Target)
	}
	if !e.Loop && !contract.Compatible(e.Out, e.In) {
		return &contract.IncompatibleEdgeError{
			SourceID:    src.ID,
			SourceType:  src.Type,
			TargetID:    tgt.ID,
			TargetType:  tgt.Type,
			TargetField: e.TargetField,
			OutputTypes: e.Out.List(),
			InputTypes:  e.In.List(),
		}
	}
	e.index = len(g.edges)
	g.edges = append(g.edges, e)
	g.dirty = true
	return nil
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Vertices returns all vertices in insertion order.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.vertices[id])
	}
	return out
}

// Edges returns all edges in declaration order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Successors returns the ordered dependents of id over ordinary edges.
func (g *Graph) Successors(id string) []string {
	g.buildMaps()
	return g.succ[id]
}

// Predecessors returns the ordered dependencies of id over ordinary edges.
func (g *Graph) Predecessors(id string) []string {
	g.buildMaps()
	return g.pred[id]
}

// InEdges returns every edge targeting id, loop-feedback edges included,
// in declaration order.
func (g *Graph) InEdges(id string) []*Edge {
	g.buildMaps()
	return g.inEdges[id]
}

// OutEdges returns every edge leaving id in declaration order.
func (g *Graph) OutEdges(id string) []*Edge {
	g.buildMaps()
	return g.outEdges[id]
}

// EdgedFields returns the set of target field names of id that have at
// least one ordinary incoming edge.
func (g *Graph) EdgedFields(id string) map[string]struct{} {
	g.buildMaps()
	fields := make(map[string]struct{})
	for _, e := range g.inEdges[id] {
		if !e.Loop {
			fields[e.TargetField] = struct{}{}
		}
	}
	return fields
}

// buildMaps derives the successor/predecessor maps and the positional
// indexes of list-field edges. O(V+E); runs only after structural changes.
func (g *Graph) buildMaps() {
	if !g.dirty {
		return
	}
	g.succ = make(map[string][]string, len(g.vertices))
	g.pred = make(map[string][]string, len(g.vertices))
	g.inEdges = make(map[string][]*Edge, len(g.vertices))
	g.outEdges = make(map[string][]*Edge, len(g.vertices))

	fieldCounts := make(map[string]int)
	for _, e := range g.edges {
		g.inEdges[e.Target] = append(g.inEdges[e.Target], e)
		g.outEdges[e.Source] = append(g.outEdges[e.Source], e)
		if e.Loop {
			continue
		}
		if !contains(g.succ[e.Source], e.Target) {
			g.succ[e.Source] = append(g.succ[e.Source], e.Target)
		}
		if !contains(g.pred[e.Target], e.Source) {
			g.pred[e.Target] = append(g.pred[e.Target], e.Source)
		}
		fieldKey := e.Target + "\x00" + e.TargetField
		e.fieldIndex = fieldCounts[fieldKey]
		fieldCounts[fieldKey]++
	}
	for _, e := range g.edges {
		if e.Loop {
			continue
		}
		e.fieldCount = fieldCounts[e.Target+"\x00"+e.TargetField]
	}
	g.dirty = false
}

func contains(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

// Activate force-includes a vertex in the current run.
func (g *Graph) Activate(id string) { g.activated[id] = struct{}{} }

// Inactivate force-excludes a vertex from the current run, e.g. the branch
// not taken by a short-circuiting conditional.
func (g *Graph) Inactivate(id string) { g.inactivated[id] = struct{}{} }

// IsInactive reports whether a vertex has been force-excluded.
func (g *Graph) IsInactive(id string) bool {
	_, ok := g.inactivated[id]
	return ok
}

// ResetActivation clears all per-run activation overrides.
func (g *Graph) ResetActivation() {
	g.activated = make(map[string]struct{})
	g.inactivated = make(map[string]struct{})
}

// ResetRun returns every vertex to StatePending and clears all edge
// fulfillment, preparing the graph for a fresh run.
func (g *Graph) ResetRun() {
	for _, v := range g.vertices {
		v.Reset()
	}
	for _, e := range g.edges {
		e.Reset()
	}
	g.ResetActivation()
}

// Induced returns a fresh graph containing copies of the given vertices and
// of every edge whose endpoints both fall inside the set. The copies share
// no mutable state with the originals.
func (g *Graph) Induced(ids map[string]struct{}) *Graph {
	sub := New()
	for _, id := range g.order {
		if _, ok := ids[id]; !ok {
			continue
		}
		// Ignoring the error: ids come from this graph, so no duplicates.
		_ = sub.AddVertex(g.vertices[id].clone())
	}
	for _, e := range g.edges {
		if _, ok := ids[e.Source]; !ok {
			continue
		}
		if _, ok := ids[e.Target]; !ok {
			continue
		}
		if err := sub.AddEdge(e.clone()); err != nil {
			// Edges were valid in the parent; revalidation cannot fail.
			panic(err)
		}
	}
	return sub
}
