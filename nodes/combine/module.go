// Package combine provides the list concatenation node. Its texts input is
// a list field, so multiple incoming edges accumulate positionally in edge
// declaration order.
package combine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func buildCombine(_ context.Context, params map[string]any) (any, string, error) {
	sep, _ := params["separator"].(string)

	var parts []string
	switch texts := params["texts"].(type) {
	case []any:
		for _, item := range texts {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
		}
	case []string:
		parts = texts
	case string:
		parts = []string{texts}
	case nil:
		// empty input produces empty output
	default:
		return nil, "", fmt.Errorf("combine: unsupported texts value %T", texts)
	}

	joined := strings.Join(parts, sep)
	return joined, joined, nil
}

// Register registers the combine node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "combine",
		DisplayName: "Combine Text",
		Inputs: []*schema.InputDef{
			{Name: "texts", Types: []string{"Message", "Text"}, List: true},
			{Name: "separator", Types: []string{"Text"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "message", Types: []string{"Message"}},
		},
	}, &registry.Handler{Build: buildCombine})
}
