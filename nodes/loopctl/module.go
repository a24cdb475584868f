// Package loopctl registers the loop node type. The loop has no handler:
// its body subgraph is re-executed per item by the engine, and the
// collected per-iteration outputs become its built value.
package loopctl

import (
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the loop node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "loop",
		DisplayName: "Loop",
		Inputs: []*schema.InputDef{
			{Name: "items", Types: []string{"any"}, Required: true, List: true},
			// feedback carries the body's per-iteration result back in via
			// the sanctioned loop-feedback edge type.
			{Name: "feedback", Types: []string{"any"}},
		},
		Outputs: []*schema.OutputDef{
			// item feeds the body subgraph with the current element.
			{Name: "item", Types: []string{"any"}},
			// result carries the collected outputs downstream.
			{Name: "result", Types: []string{"Data", "any"}},
		},
		Caps: schema.Capabilities{Loop: true},
	}, nil)
}
