// Package document reads and writes the declarative flow format: HCL files
// holding a node list and an edge list. Parse produces a validated graph;
// Serialize writes a graph back out such that reparsing yields a
// structurally equivalent graph.
package document

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowgrid/internal/contract"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/schema"
)

// Parse decodes src into a graph, validating structure and edge contracts
// against the node types registered in reg. All contract and legacy-type
// normalization happens here, once; runs never revisit it.
func Parse(ctx context.Context, src []byte, filename string, reg *registry.Registry) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var doc schema.FlowDoc
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	g := graph.New()
	for _, nb := range doc.Nodes {
		v, err := vertexFromBlock(nb, reg)
		if err != nil {
			return nil, err
		}
		if err := g.AddVertex(v); err != nil {
			return nil, err
		}
	}
	logger.Debug("Parsed node blocks.", "count", len(doc.Nodes))

	for _, eb := range doc.Edges {
		e, err := edgeFromBlock(eb, g)
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	logger.Debug("Parsed edge blocks.", "count", len(doc.Edges))

	if err := g.CheckCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// vertexFromBlock merges a node block with its registry descriptor: the
// registry declares the field universe (types, required, list, defaults),
// the document supplies literal values and overrides.
func vertexFromBlock(nb *schema.NodeBlock, reg *registry.Registry) (*graph.Vertex, error) {
	def, ok := reg.Definition(nb.Type)
	if !ok {
		return nil, fmt.Errorf("node '%s': unknown node type '%s'", nb.ID, nb.Type)
	}

	v := graph.NewVertex(nb.ID, nb.Type)
	v.DisplayName = nb.DisplayName
	if v.DisplayName == "" {
		v.DisplayName = def.DisplayName
	}
	v.Frozen = nb.Frozen
	v.IsInput = def.Caps.InterfaceInput
	v.IsOutput = def.Caps.InterfaceOutput

	for _, in := range def.Inputs {
		f := &graph.Field{
			Name:     in.Name,
			Types:    in.Types,
			Required: in.Required,
			List:     in.List,
		}
		if in.Default != nil {
			val, err := ctyToNative(*in.Default)
			if err != nil {
				return nil, fmt.Errorf("node type '%s', input '%s': %w", nb.Type, in.Name, err)
			}
			f.Value = val
			f.HasValue = true
		}
		v.Template[in.Name] = f
	}

	for _, fb := range nb.Fields {
		f, ok := v.Template[fb.Name]
		if !ok {
			// Field unknown to the registry: keep it as a document-declared
			// extra so older flows with retired fields still load.
			f = &graph.Field{Name: fb.Name}
			v.Template[fb.Name] = f
		}
		if len(fb.Types) > 0 {
			f.Types = fb.Types
		}
		if fb.Required {
			f.Required = true
		}
		if fb.List {
			f.List = true
		}
		if fb.Value != nil {
			val, err := ctyToNative(*fb.Value)
			if err != nil {
				return nil, fmt.Errorf("node '%s', field '%s': %w", nb.ID, fb.Name, err)
			}
			f.Value = val
			f.HasValue = true
		}
	}
	return v, nil
}

// edgeFromBlock normalizes an edge block's handle declarations into the
// internal type-set form. The legacy encoding (single declared type plus
// the source component's base-class chain) is collapsed here and nowhere
// else.
func edgeFromBlock(eb *schema.EdgeBlock, g *graph.Graph) (*graph.Edge, error) {
	var out contract.TypeSet
	if eb.LegacyType != "" || len(eb.BaseClasses) > 0 {
		out = contract.NormalizeLegacy(eb.LegacyType, eb.BaseClasses)
	} else {
		out = contract.Normalize(eb.OutputTypes)
	}

	inTypes := eb.InputTypes
	list := false
	if target, ok := g.Vertex(eb.Target); ok {
		if f, ok := target.Template[eb.TargetField]; ok {
			if len(inTypes) == 0 {
				inTypes = f.Types
			}
			list = f.List
		}
	}

	return &graph.Edge{
		Source:       eb.Source,
		SourceOutput: eb.SourceOutput,
		Target:       eb.Target,
		TargetField:  eb.TargetField,
		Out:          out,
		In:           contract.Normalize(inTypes),
		List:         list,
		Loop:         eb.Loop,
	}, nil
}
