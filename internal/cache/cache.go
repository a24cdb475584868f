// Package cache is the per-run vertex build cache: at-most-once build
// execution per vertex id, fine-grained per-id locking, and downstream
// invalidation for targeted rebuilds. A Store is owned by its run context
// and passed by handle; there is no process-wide cache.
package cache

import (
	"context"
	"sync"

	"github.com/vk/flowgrid/internal/graph"
)

// BuildFunc performs the actual vertex build under the entry lock.
type BuildFunc func(ctx context.Context) (value any, repr string, err error)

type entry struct {
	mu    sync.Mutex
	built bool
	value any
	repr  string
	err   error
}

// Store caches build results keyed by vertex id for one run (and any
// resumed continuation of it).
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// entryFor returns the entry for id, creating it if needed. The store lock
// covers only map access; builds serialize on the entry lock so unrelated
// vertices never contend.
func (s *Store) entryFor(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Build runs fn for id at most once. A concurrent call for the same id
// blocks on the in-flight build and receives the first caller's result,
// success or failure. A later call after a completed build returns the
// cached result without invoking fn.
func (s *Store) Build(ctx context.Context, id string, fn BuildFunc) (any, string, error) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.value, e.repr, nil
	}
	if e.err != nil {
		return nil, "", e.err
	}
	value, repr, err := fn(ctx)
	if err != nil {
		e.err = err
		return nil, "", err
	}
	e.built = true
	e.value = value
	e.repr = repr
	return value, repr, nil
}

// Get returns the cached result for id.
func (s *Store) Get(id string) (value any, repr string, ok bool) {
	s.mu.Lock()
	e, exists := s.entries[id]
	s.mu.Unlock()
	if !exists {
		return nil, "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.repr, e.built
}

// Put records a result directly, bypassing Build. Used when a value is
// produced outside the normal build path, e.g. collected loop output.
func (s *Store) Put(id string, value any, repr string) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.built = true
	e.value = value
	e.repr = repr
	e.err = nil
}

// drop removes the cached entry for id.
func (s *Store) drop(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// InvalidateDownstreamOf walks the successor map from id and resets every
// reachable vertex to Pending, discarding its cached value and clearing the
// fulfillment of its incoming edges. Frozen vertices keep their built
// result; the walk continues past them because other paths may still
// require a rebuild. Unrelated branches are untouched. id itself is not
// reset; re-add it explicitly to rebuild it too.
func (s *Store) InvalidateDownstreamOf(g *graph.Graph, id string) {
	seen := map[string]struct{}{id: {}}
	queue := append([]string(nil), g.Successors(id)...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}

		v, ok := g.Vertex(cur)
		if ok && !(v.Frozen && v.State() == graph.StateBuilt) {
			v.Reset()
			s.drop(cur)
			for _, e := range g.InEdges(cur) {
				e.Reset()
			}
		}
		queue = append(queue, g.Successors(cur)...)
	}
}

// Invalidate resets a single vertex and its cache entry, typically the
// edited vertex itself before InvalidateDownstreamOf.
func (s *Store) Invalidate(g *graph.Graph, id string) {
	v, ok := g.Vertex(id)
	if !ok {
		return
	}
	if v.Frozen && v.State() == graph.StateBuilt {
		return
	}
	v.Reset()
	s.drop(id)
	for _, e := range g.InEdges(id) {
		e.Reset()
	}
}
