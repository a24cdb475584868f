// Package nodes wires the builtin node set into a registry. External node
// packs register the same way through registry.Module.
package nodes

import (
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/nodes/combine"
	"github.com/vk/flowgrid/nodes/envvar"
	"github.com/vk/flowgrid/nodes/httpreq"
	"github.com/vk/flowgrid/nodes/loopctl"
	"github.com/vk/flowgrid/nodes/script"
	"github.com/vk/flowgrid/nodes/template"
	"github.com/vk/flowgrid/nodes/textio"
)

// Builtin returns the builtin node modules in registration order.
func Builtin() []registry.Module {
	return []registry.Module{
		&textio.Module{},
		&template.Module{},
		&script.Module{},
		&combine.Module{},
		&envvar.Module{},
		&httpreq.Module{},
		&loopctl.Module{},
	}
}

// RegisterBuiltin registers every builtin node type on r.
func RegisterBuiltin(r *registry.Registry) {
	for _, m := range Builtin() {
		m.Register(r)
	}
}
