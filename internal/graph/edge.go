package graph

import (
	"fmt"
	"sync"

	"github.com/vk/flowgrid/internal/contract"
)

// Edge is a typed directional connection from a source vertex's named
// output to a target vertex's input field. Type compatibility is checked
// once when the edge is added to a graph and never re-checked during a run.
type Edge struct {
	Source       string
	SourceOutput string
	Target       string
	TargetField  string

	// Out and In are the normalized declared type sets of the two handles.
	Out contract.TypeSet
	In  contract.TypeSet

	// List mirrors the target field's list-ness; multiple edges into a list
	// field accumulate positionally.
	List bool
	// Loop marks the sanctioned loop-feedback edge type, exempt from the
	// acyclicity check and handled by the loop executor.
	Loop bool

	// index is the edge's declaration position in the document. fieldIndex
	// and fieldCount are its position among the edges that share its target
	// field, assigned when the graph derives its maps.
	index      int
	fieldIndex int
	fieldCount int

	mu        sync.Mutex
	fulfilled bool
	value     any
}

// ID is the edge identity: (source, target, target field).
func (e *Edge) ID() string {
	return fmt.Sprintf("%s->%s.%s", e.Source, e.Target, e.TargetField)
}

// Fulfilled reports whether the source result has been copied across for
// the current run.
func (e *Edge) Fulfilled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fulfilled
}

// Value returns the cached resolved value. Meaningful only once fulfilled.
func (e *Edge) Value() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Fulfill copies the built source value into the target's resolved
// parameter map under the target field, substituting the textual
// representation when the target accepts only text. The source value is
// never mutated. Fulfill is set exactly once per run; later calls are
// no-ops until Reset.
func (e *Edge) Fulfill(target *Vertex, value any, repr string) {
	e.mu.Lock()
	if e.fulfilled {
		e.mu.Unlock()
		return
	}
	resolved := value
	if contract.WantsText(e.In) {
		resolved = repr
	}
	e.fulfilled = true
	e.value = resolved
	e.mu.Unlock()

	if e.List {
		target.setListParam(e.TargetField, e.fieldIndex, e.fieldCount, resolved)
		return
	}
	target.SetParam(e.TargetField, resolved)
}

// Reset clears the per-run fulfillment state. Only called when the owning
// target is explicitly invalidated for a rebuild.
func (e *Edge) Reset() {
	e.mu.Lock()
	e.fulfilled = false
	e.value = nil
	e.mu.Unlock()
}

// clone returns an unfulfilled copy of the edge for a subgraph copy.
func (e *Edge) clone() *Edge {
	return &Edge{
		Source:       e.Source,
		SourceOutput: e.SourceOutput,
		Target:       e.Target,
		TargetField:  e.TargetField,
		Out:          e.Out,
		In:           e.In,
		List:         e.List,
		Loop:         e.Loop,
		index:        e.index,
	}
}
