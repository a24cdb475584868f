// Package script provides the JavaScript transform node, backed by goja.
// The code runs in a fresh runtime per build with the resolved input bound
// as `input`.
package script

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func buildScript(_ context.Context, params map[string]any) (any, string, error) {
	code, _ := params["code"].(string)
	if code == "" {
		return nil, "", fmt.Errorf("script node requires non-empty code")
	}

	runtime := goja.New()
	if err := runtime.Set("input", params["input"]); err != nil {
		return nil, "", fmt.Errorf("binding input into runtime: %w", err)
	}

	// Wrapped in an anonymous function so user code can use `return`.
	wrapped := "(function() {\n" + code + "\n})()"
	result, err := runtime.RunString(wrapped)
	if err != nil {
		return nil, "", fmt.Errorf("script execution: %w", err)
	}

	value := result.Export()
	repr := ""
	if value != nil {
		repr = fmt.Sprintf("%v", value)
	}
	return value, repr, nil
}

// Register registers the script node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "script",
		DisplayName: "Script",
		Inputs: []*schema.InputDef{
			{Name: "code", Types: []string{"Text"}, Required: true},
			{Name: "input", Types: []string{"any"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "result", Types: []string{"Message", "Data"}},
		},
	}, &registry.Handler{Build: buildScript})
}
