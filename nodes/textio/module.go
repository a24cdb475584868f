// Package textio provides the interactive text endpoints of a flow: the
// text_input node that carries the caller's input into the graph and the
// text_output node that terminates it, optionally streaming.
package textio

import (
	"context"
	"fmt"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const streamChunkSize = 16

func asText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func buildPassthrough(_ context.Context, params map[string]any) (any, string, error) {
	text := asText(params["input_value"])
	return text, text, nil
}

// streamText emits the input value in fixed-size rune chunks.
func streamText(ctx context.Context, params map[string]any) (<-chan string, error) {
	text := asText(params["input_value"])
	ch := make(chan string)
	go func() {
		defer close(ch)
		runes := []rune(text)
		for start := 0; start < len(runes); start += streamChunkSize {
			end := start + streamChunkSize
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case ch <- string(runes[start:end]):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Register registers both endpoint node types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "text_input",
		DisplayName: "Text Input",
		Inputs: []*schema.InputDef{
			{Name: "input_value", Types: []string{"Message", "Text"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "message", Types: []string{"Message"}},
		},
		Caps: schema.Capabilities{InterfaceInput: true},
	}, &registry.Handler{Build: buildPassthrough})

	r.Register(&schema.NodeTypeDef{
		Type:        "text_output",
		DisplayName: "Text Output",
		Inputs: []*schema.InputDef{
			{Name: "input_value", Types: []string{"Message", "Text"}, Required: true},
		},
		Outputs: []*schema.OutputDef{
			{Name: "message", Types: []string{"Message"}},
		},
		Caps: schema.Capabilities{InterfaceOutput: true, Stream: true},
	}, &registry.Handler{Build: buildPassthrough, Stream: streamText})
}
