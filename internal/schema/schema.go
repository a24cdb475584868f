// Package schema defines the declarative data model shared by the document
// parser, the node registry, and the graph: HCL block structures for flow
// files plus the node-type descriptors the registry serves.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Flow Document Structures ---

// FieldBlock is one named template field inside a node block: a literal
// value and/or the type metadata that governs edge binding.
type FieldBlock struct {
	Name     string     `hcl:"name,label"`
	Value    *cty.Value `hcl:"value,optional"`
	Types    []string   `hcl:"types,optional"`
	Required bool       `hcl:"required,optional"`
	List     bool       `hcl:"list,optional"`
}

// NodeBlock is a `node <type> <id>` block from a flow file.
type NodeBlock struct {
	Type        string        `hcl:"type,label"`
	ID          string        `hcl:"id,label"`
	DisplayName string        `hcl:"display_name,optional"`
	Frozen      bool          `hcl:"frozen,optional"`
	Fields      []*FieldBlock `hcl:"field,block"`
}

// EdgeBlock is an `edge` block from a flow file. Modern documents declare
// output_types/input_types; legacy documents declare a single type plus the
// producing component's base_classes. Both are normalized at parse time.
type EdgeBlock struct {
	Source       string   `hcl:"source"`
	SourceOutput string   `hcl:"source_output,optional"`
	Target       string   `hcl:"target"`
	TargetField  string   `hcl:"target_field"`
	OutputTypes  []string `hcl:"output_types,optional"`
	InputTypes   []string `hcl:"input_types,optional"`
	LegacyType   string   `hcl:"type,optional"`
	BaseClasses  []string `hcl:"base_classes,optional"`
	Loop         bool     `hcl:"loop,optional"`
}

// FlowDoc is the top-level structure of a flow file: the node list and the
// edge list.
type FlowDoc struct {
	Nodes []*NodeBlock `hcl:"node,block"`
	Edges []*EdgeBlock `hcl:"edge,block"`
	Body  hcl.Body     `hcl:",remain"`
}

// --- Node Type Descriptors ---

// Capabilities are the behavior flags of a node type. Composition of flags
// replaces a type hierarchy: a node type is described by what it can do,
// not by what it inherits from.
type Capabilities struct {
	// Stream marks types whose handler can emit incremental output chunks.
	Stream bool
	// InterfaceInput marks the interactive entry point of a flow.
	InterfaceInput bool
	// InterfaceOutput marks the terminal point of a flow.
	InterfaceOutput bool
	// Loop marks the loop control type whose body subgraph is re-executed
	// per input item by the engine rather than by a handler.
	Loop bool
}

// InputDef declares one named input of a node type.
type InputDef struct {
	Name     string
	Types    []string
	Required bool
	List     bool
	Default  *cty.Value
}

// OutputDef declares one named output of a node type.
type OutputDef struct {
	Name  string
	Types []string
}

// NodeTypeDef is the full static descriptor of a node type, served by the
// registry and consulted during parsing and edge validation.
type NodeTypeDef struct {
	Type        string
	DisplayName string
	Inputs      []*InputDef
	Outputs     []*OutputDef
	Caps        Capabilities
}

// Input returns the input descriptor with the given name, or nil.
func (d *NodeTypeDef) Input(name string) *InputDef {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// Output returns the output descriptor with the given name, or nil.
func (d *NodeTypeDef) Output(name string) *OutputDef {
	for _, out := range d.Outputs {
		if out.Name == name {
			return out
		}
	}
	return nil
}
