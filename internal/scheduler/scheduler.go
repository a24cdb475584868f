// Package scheduler computes build order over a flow graph: which vertices
// are runnable now, which are blocked, and how failure propagates to
// dependents. It mutates vertex build state but never builds anything
// itself; that is the coordinator's job.
package scheduler

import (
	"fmt"

	"github.com/vk/flowgrid/internal/graph"
)

// DependencyFailedError marks a vertex that was never built because an
// upstream dependency failed. It is propagated, not retried.
type DependencyFailedError struct {
	VertexID   string
	Dependency string
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("vertex '%s' not built: dependency '%s' failed", e.VertexID, e.Dependency)
}

// Scheduler tracks runnability for one run over one graph. The optional
// start/stop bounds narrow the run to the vertices reachable between them,
// which is how partial reruns of a modified subtree work.
type Scheduler struct {
	g     *graph.Graph
	scope map[string]struct{} // nil means every vertex is in scope
}

// New creates a scheduler for g. startID bounds the run from below (only
// vertices reachable from it run), stopID from above (only vertices that
// can reach it run); either may be empty.
func New(g *graph.Graph, startID, stopID string) (*Scheduler, error) {
	s := &Scheduler{g: g}

	var fromStart, toStop map[string]struct{}
	if startID != "" {
		if _, ok := g.Vertex(startID); !ok {
			return nil, fmt.Errorf("start vertex '%s' not found", startID)
		}
		fromStart = reach(startID, g.Successors)
	}
	if stopID != "" {
		if _, ok := g.Vertex(stopID); !ok {
			return nil, fmt.Errorf("stop vertex '%s' not found", stopID)
		}
		toStop = reach(stopID, g.Predecessors)
	}

	switch {
	case fromStart != nil && toStop != nil:
		s.scope = make(map[string]struct{})
		for id := range fromStart {
			if _, ok := toStop[id]; ok {
				s.scope[id] = struct{}{}
			}
		}
	case fromStart != nil:
		s.scope = fromStart
	case toStop != nil:
		s.scope = toStop
	}
	return s, nil
}

// reach walks the graph from id along step and returns every visited
// vertex, id included.
func reach(id string, step func(string) []string) map[string]struct{} {
	seen := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range step(cur) {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return seen
}

// InScope reports whether id participates in this run.
func (s *Scheduler) InScope(id string) bool {
	if s.g.IsInactive(id) {
		return false
	}
	if s.scope == nil {
		return true
	}
	_, ok := s.scope[id]
	return ok
}

// NextReadyLayer returns the Pending in-scope vertices whose in-scope
// ordinary predecessors are all Built. Out-of-scope predecessors count as
// satisfied: a partial rerun relies on their cached results. Loop-feedback
// inputs never block readiness. Order follows vertex declaration order.
func (s *Scheduler) NextReadyLayer() []string {
	var layer []string
	for _, v := range s.g.Vertices() {
		if !s.InScope(v.ID) || v.State() != graph.StatePending {
			continue
		}
		if s.predecessorsBuilt(v.ID) {
			layer = append(layer, v.ID)
		}
	}
	return layer
}

func (s *Scheduler) predecessorsBuilt(id string) bool {
	for _, pred := range s.g.Predecessors(id) {
		if !s.InScope(pred) {
			continue
		}
		pv, _ := s.g.Vertex(pred)
		if pv.State() != graph.StateBuilt {
			return false
		}
	}
	return true
}

// MarkBuilding transitions a vertex into StateBuilding.
func (s *Scheduler) MarkBuilding(id string) {
	if v, ok := s.g.Vertex(id); ok {
		v.SetState(graph.StateBuilding)
	}
}

// MarkBuilt transitions a vertex into StateBuilt. The built value itself is
// recorded by the coordinator via Vertex.SetBuilt.
func (s *Scheduler) MarkBuilt(id string) {
	if v, ok := s.g.Vertex(id); ok {
		v.SetState(graph.StateBuilt)
	}
}

// MarkFailed records err on the vertex and fails every transitive successor
// with a DependencyFailedError, without attempting to build them. Sibling
// branches are untouched.
func (s *Scheduler) MarkFailed(id string, err error) {
	v, ok := s.g.Vertex(id)
	if !ok {
		return
	}
	v.Fail(err)
	s.failSuccessors(id, id)
}

func (s *Scheduler) failSuccessors(from, rootCause string) {
	for _, succ := range s.g.Successors(from) {
		sv, ok := s.g.Vertex(succ)
		if !ok || sv.State() != graph.StatePending {
			continue
		}
		sv.Fail(&DependencyFailedError{VertexID: succ, Dependency: rootCause})
		s.failSuccessors(succ, rootCause)
	}
}

// Done reports whether no in-scope vertex remains Pending or Building.
func (s *Scheduler) Done() bool {
	for _, v := range s.g.Vertices() {
		if !s.InScope(v.ID) {
			continue
		}
		if st := v.State(); st == graph.StatePending || st == graph.StateBuilding {
			return false
		}
	}
	return true
}

// Stalled reports whether Pending in-scope vertices remain but none are
// ready and nothing is building: the run cannot make progress.
func (s *Scheduler) Stalled() bool {
	pending := false
	for _, v := range s.g.Vertices() {
		if !s.InScope(v.ID) {
			continue
		}
		switch v.State() {
		case graph.StateBuilding:
			return false
		case graph.StatePending:
			pending = true
		}
	}
	return pending && len(s.NextReadyLayer()) == 0
}

// Layers returns the full topological layering of the in-scope graph:
// every vertex appears strictly after all of its predecessors. Build state
// is ignored; this is the static order used for validation and display.
func (s *Scheduler) Layers() [][]string {
	indeg := make(map[string]int)
	for _, v := range s.g.Vertices() {
		if !s.InScope(v.ID) {
			continue
		}
		indeg[v.ID] = 0
	}
	for id := range indeg {
		for _, pred := range s.g.Predecessors(id) {
			if _, ok := indeg[pred]; ok {
				indeg[id]++
			}
		}
	}

	var layers [][]string
	remaining := len(indeg)
	for remaining > 0 {
		var layer []string
		for _, v := range s.g.Vertices() {
			if deg, ok := indeg[v.ID]; ok && deg == 0 {
				layer = append(layer, v.ID)
			}
		}
		if len(layer) == 0 {
			// Unreachable on a contract-checked graph; cycles are rejected
			// at construction.
			break
		}
		for _, id := range layer {
			delete(indeg, id)
			remaining--
			for _, succ := range s.g.Successors(id) {
				if _, ok := indeg[succ]; ok {
					indeg[succ]--
				}
			}
		}
		layers = append(layers, layer)
	}
	return layers
}
