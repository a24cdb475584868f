package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/ctxlog"
)

// Validate performs a strict parity check between a type's descriptor and
// its registered behavior: stream capability requires a stream handler,
// non-loop types require a build handler, loop types must declare the body
// output and feedback input the engine drives, and handle names must be
// unique. Collected problems are reported together.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for typeTag, e := range r.entries {
		def, handler := e.def, e.handler

		if def.Caps.Loop {
			if handler != nil {
				errs = append(errs, fmt.Sprintf("node type '%s': loop types are engine-driven and must not register a handler", typeTag))
			}
			if def.Output("item") == nil {
				errs = append(errs, fmt.Sprintf("node type '%s': loop type missing 'item' body output", typeTag))
			}
			if def.Input("feedback") == nil {
				errs = append(errs, fmt.Sprintf("node type '%s': loop type missing 'feedback' input", typeTag))
			}
		} else {
			if handler == nil || handler.Build == nil {
				errs = append(errs, fmt.Sprintf("node type '%s': no build handler registered", typeTag))
			}
		}

		if def.Caps.Stream && (handler == nil || handler.Stream == nil) {
			errs = append(errs, fmt.Sprintf("node type '%s': declares stream capability but registers no stream handler", typeTag))
		}
		if !def.Caps.Stream && handler != nil && handler.Stream != nil {
			logger.Warn("Node type registers a stream handler without declaring the capability; it will never be used.", "type", typeTag)
		}

		seen := make(map[string]struct{})
		for _, in := range def.Inputs {
			if _, dup := seen[in.Name]; dup {
				errs = append(errs, fmt.Sprintf("node type '%s': duplicate input '%s'", typeTag, in.Name))
			}
			seen[in.Name] = struct{}{}
			if len(in.Types) == 0 {
				errs = append(errs, fmt.Sprintf("node type '%s': input '%s' declares no accepted types", typeTag, in.Name))
			}
		}
		seen = make(map[string]struct{})
		for _, out := range def.Outputs {
			if _, dup := seen[out.Name]; dup {
				errs = append(errs, fmt.Sprintf("node type '%s': duplicate output '%s'", typeTag, out.Name))
			}
			seen[out.Name] = struct{}{}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
