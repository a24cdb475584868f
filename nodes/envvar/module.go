// Package envvar provides the environment variable node, the simplest way
// to feed deployment-specific values into a flow without editing it.
package envvar

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func buildEnvVar(_ context.Context, params map[string]any) (any, string, error) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, "", fmt.Errorf("env_var node requires a variable name")
	}

	value, ok := os.LookupEnv(name)
	if !ok {
		fallback, hasFallback := params["default"]
		if !hasFallback {
			return nil, "", fmt.Errorf("environment variable '%s' is not set", name)
		}
		s := fmt.Sprintf("%v", fallback)
		return s, s, nil
	}
	return value, value, nil
}

// Register registers the env_var node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&schema.NodeTypeDef{
		Type:        "env_var",
		DisplayName: "Environment Variable",
		Inputs: []*schema.InputDef{
			{Name: "name", Types: []string{"Text"}, Required: true},
			{Name: "default", Types: []string{"Text"}},
		},
		Outputs: []*schema.OutputDef{
			{Name: "message", Types: []string{"Message", "Text"}},
		},
	}, &registry.Handler{Build: buildEnvVar})
}
