// Package template provides the string template node: the {value}
// placeholder in the template text is replaced by the bound input value.
package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func buildTemplate(_ context.Context, params map[string]any) (any, string, error) {
	tmpl, _ := params["template"].(string)

	value := ""
	if raw, ok := params["value"]; ok && raw != nil {
		if s, ok := raw.(string); ok {
			value = s
		} else {
			value = fmt.Sprintf("%v", raw)
		}
	}

	rendered := strings.ReplaceAll(tmpl, "{value}", value)
	return rendered, rendered, nil
}

// Register registers the template node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "template",
		DisplayName: "Template",
		Inputs: []*schema.InputDef{
			{Name: "template", Types: []string{"Text"}, Required: true},
			{Name: "value", Types: []string{"any"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "message", Types: []string{"Message", "Text"}},
		},
	}, &registry.Handler{Build: buildTemplate})
}
