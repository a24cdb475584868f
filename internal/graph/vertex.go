package graph

import (
	"sync"
	"sync/atomic"
)

// State is the build lifecycle position of a vertex within one run.
type State int32

const (
	StatePending State = iota
	StateBuilding
	StateBuilt
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateBuilding:
		return "building"
	case StateBuilt:
		return "built"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Field is one template field of a vertex: the literal value authored in
// the document (if any) merged with the registry's declared metadata.
type Field struct {
	Name     string
	Value    any
	HasValue bool
	Types    []string
	Required bool
	List     bool
}

// Vertex is a single node of the workflow graph: the unit of build, run and
// stream. The graph exclusively owns its vertices; external callers refer
// to them by id.
type Vertex struct {
	ID          string
	Type        string
	DisplayName string
	Template    map[string]*Field

	// Frozen exempts the vertex from downstream invalidation: once built,
	// its cached result is reused across partial reruns.
	Frozen bool
	// IsInput / IsOutput mark the interactive entry and terminal points.
	IsInput  bool
	IsOutput bool

	mu     sync.Mutex
	params map[string]any

	state atomic.Int32
	built any
	repr  string
	err   error
}

// NewVertex creates a vertex with an empty resolved-parameter map.
func NewVertex(id, typeTag string) *Vertex {
	return &Vertex{
		ID:       id,
		Type:     typeTag,
		Template: make(map[string]*Field),
		params:   make(map[string]any),
	}
}

// State returns the current build state.
func (v *Vertex) State() State { return State(v.state.Load()) }

// SetState transitions the vertex unconditionally. Scheduling invariants
// are enforced by the scheduler, not here.
func (v *Vertex) SetState(s State) { v.state.Store(int32(s)) }

// SetBuilt records the built value and its textual representation and moves
// the vertex to StateBuilt.
func (v *Vertex) SetBuilt(value any, repr string) {
	v.mu.Lock()
	v.built = value
	v.repr = repr
	v.err = nil
	v.mu.Unlock()
	v.state.Store(int32(StateBuilt))
}

// Fail records err and moves the vertex to StateFailed.
func (v *Vertex) Fail(err error) {
	v.mu.Lock()
	v.err = err
	v.mu.Unlock()
	v.state.Store(int32(StateFailed))
}

// Built returns the built value and representation. Valid only in StateBuilt.
func (v *Vertex) Built() (any, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.built, v.repr
}

// Err returns the recorded failure, or nil.
func (v *Vertex) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// SetParam stores a resolved parameter value under name.
func (v *Vertex) SetParam(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.params[name] = value
}

// setListParam places value at position idx of the list parameter name,
// growing the slice to count entries on first touch. The vertex mutex is
// the per-target-field serialization point: concurrent sources may fulfill
// in any order, the declared position is fixed.
func (v *Vertex) setListParam(name string, idx, count int, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	list, ok := v.params[name].([]any)
	if !ok || len(list) != count {
		list = make([]any, count)
	}
	if idx >= 0 && idx < count {
		list[idx] = value
	}
	v.params[name] = list
}

// Param returns the resolved value of a single parameter.
func (v *Vertex) Param(name string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.params[name]
	return val, ok
}

// Params returns a copy of the resolved parameter map, safe to hand to a
// node handler.
func (v *Vertex) Params() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]any, len(v.params))
	for k, val := range v.params {
		out[k] = val
	}
	return out
}

// BindLiterals seeds the resolved parameter map from template literals.
// Edge-fulfilled fields are skipped; they are written by Edge.Fulfill.
func (v *Vertex) BindLiterals(edgedFields map[string]struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, f := range v.Template {
		if _, edged := edgedFields[name]; edged {
			continue
		}
		if f.HasValue {
			v.params[name] = f.Value
		}
	}
}

// Reset discards resolved parameters, the built result and the failure, and
// returns the vertex to StatePending. Used by downstream invalidation and
// by per-iteration loop copies.
func (v *Vertex) Reset() {
	v.mu.Lock()
	v.params = make(map[string]any)
	v.built = nil
	v.repr = ""
	v.err = nil
	v.mu.Unlock()
	v.state.Store(int32(StatePending))
}

// clone returns a fresh vertex with the same identity and template but
// untouched run state. Template fields are copied so iterations cannot
// bleed literal mutations into each other.
func (v *Vertex) clone() *Vertex {
	c := NewVertex(v.ID, v.Type)
	c.DisplayName = v.DisplayName
	c.Frozen = v.Frozen
	c.IsInput = v.IsInput
	c.IsOutput = v.IsOutput
	for name, f := range v.Template {
		cf := *f
		c.Template[name] = &cf
	}
	return c
}
