package document

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/graph"
)

// Serialize writes g back to the flow document format. The output is not
// byte-identical to the source document, but parsing it again yields a
// structurally equivalent graph: same vertex set, same edges, same types.
func Serialize(g *graph.Graph) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for _, v := range g.Vertices() {
		nb := body.AppendNewBlock("node", []string{v.Type, v.ID})
		nbody := nb.Body()
		if v.DisplayName != "" {
			nbody.SetAttributeValue("display_name", cty.StringVal(v.DisplayName))
		}
		if v.Frozen {
			nbody.SetAttributeValue("frozen", cty.BoolVal(true))
		}

		names := make([]string, 0, len(v.Template))
		for name := range v.Template {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fld := v.Template[name]
			fb := nbody.AppendNewBlock("field", []string{name})
			fbody := fb.Body()
			if fld.HasValue {
				cv, err := nativeToCty(fld.Value)
				if err != nil {
					return nil, fmt.Errorf("vertex '%s', field '%s': %w", v.ID, name, err)
				}
				fbody.SetAttributeValue("value", cv)
			}
			if len(fld.Types) > 0 {
				fbody.SetAttributeValue("types", stringListVal(fld.Types))
			}
			if fld.Required {
				fbody.SetAttributeValue("required", cty.BoolVal(true))
			}
			if fld.List {
				fbody.SetAttributeValue("list", cty.BoolVal(true))
			}
		}
		body.AppendNewline()
	}

	for _, e := range g.Edges() {
		eb := body.AppendNewBlock("edge", nil)
		ebody := eb.Body()
		ebody.SetAttributeValue("source", cty.StringVal(e.Source))
		if e.SourceOutput != "" {
			ebody.SetAttributeValue("source_output", cty.StringVal(e.SourceOutput))
		}
		ebody.SetAttributeValue("target", cty.StringVal(e.Target))
		ebody.SetAttributeValue("target_field", cty.StringVal(e.TargetField))

		if bases := e.Out.LegacyBases(); bases != nil {
			if declared := e.Out.List(); len(declared) > 0 {
				ebody.SetAttributeValue("type", cty.StringVal(declared[0]))
			}
			ebody.SetAttributeValue("base_classes", stringListVal(bases))
		} else if declared := e.Out.List(); len(declared) > 0 {
			ebody.SetAttributeValue("output_types", stringListVal(declared))
		}
		if in := e.In.List(); len(in) > 0 {
			ebody.SetAttributeValue("input_types", stringListVal(in))
		}
		if e.Loop {
			ebody.SetAttributeValue("loop", cty.BoolVal(true))
		}
		body.AppendNewline()
	}

	return f.Bytes(), nil
}
