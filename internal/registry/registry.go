// Package registry holds the node-type catalog for one engine instance:
// static type descriptors plus the Go handlers implementing each type's
// build and optional stream behavior. The executor treats every node type
// as opaque behind this boundary.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/flowgrid/internal/schema"
)

// BuildFunc produces a node's built value and its textual representation
// from the resolved parameter map. It must honor ctx cancellation if the
// underlying work is interruptible.
type BuildFunc func(ctx context.Context, params map[string]any) (any, string, error)

// StreamFunc produces incremental output chunks. The channel must be closed
// by the producer; the concatenation of chunks is the built value.
type StreamFunc func(ctx context.Context, params map[string]any) (<-chan string, error)

// Handler is the compiled Go behavior of a node type.
type Handler struct {
	Build  BuildFunc
	Stream StreamFunc
}

// Module is implemented by builtin node packages that register themselves.
type Module interface {
	Register(r *Registry)
}

type entry struct {
	def     *schema.NodeTypeDef
	handler *Handler
}

// Registry maps node type tags to their descriptors and handlers for a
// single engine instance. There is no process-wide registry.
type Registry struct {
	entries map[string]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a node type. Duplicate registration is a programming error
// and panics, matching module init expectations.
func (r *Registry) Register(def *schema.NodeTypeDef, handler *Handler) {
	if def == nil || def.Type == "" {
		panic("registry: node type definition missing type tag")
	}
	if _, exists := r.entries[def.Type]; exists {
		panic(fmt.Sprintf("registry: node type '%s' already registered", def.Type))
	}
	slog.Debug("Registering node type.", "type", def.Type)
	r.entries[def.Type] = &entry{def: def, handler: handler}
}

// Definition returns the descriptor for a type tag.
func (r *Registry) Definition(typeTag string) (*schema.NodeTypeDef, bool) {
	e, ok := r.entries[typeTag]
	if !ok {
		return nil, false
	}
	return e.def, true
}

// Handler returns the handler for a type tag. Loop types carry no handler;
// their behavior is engine-level.
func (r *Registry) Handler(typeTag string) (*Handler, bool) {
	e, ok := r.entries[typeTag]
	if !ok || e.handler == nil {
		return nil, false
	}
	return e.handler, true
}

// Types returns all registered type tags.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	return out
}
