package document_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgrid/internal/contract"
	"github.com/vk/flowgrid/internal/document"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/nodes"
)

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	nodes.RegisterBuiltin(reg)
	require.NoError(t, reg.Validate(context.Background()))
	return reg
}

const basicFlow = `
node "text_input" "greeting" {
  display_name = "Greeting"
  field "input_value" {
    value = "hello"
  }
}

node "template" "shout" {
  field "template" {
    value = "{value}!"
  }
}

node "text_output" "final" {}

edge {
  source        = "greeting"
  source_output = "message"
  target        = "shout"
  target_field  = "value"
  output_types  = ["Message"]
}

edge {
  source        = "shout"
  source_output = "message"
  target        = "final"
  target_field  = "input_value"
  output_types  = ["Message"]
}
`

func TestParse(t *testing.T) {
	reg := builtinRegistry(t)

	g, err := document.Parse(context.Background(), []byte(basicFlow), "flow.hcl", reg)
	require.NoError(t, err)

	require.Len(t, g.Vertices(), 3)
	require.Len(t, g.Edges(), 2)

	greeting, ok := g.Vertex("greeting")
	require.True(t, ok)
	assert.Equal(t, "text_input", greeting.Type)
	assert.Equal(t, "Greeting", greeting.DisplayName)
	assert.True(t, greeting.IsInput)

	f, ok := greeting.Template["input_value"]
	require.True(t, ok)
	assert.True(t, f.HasValue)
	assert.Equal(t, "hello", f.Value)
	assert.Equal(t, []string{"Message", "Text"}, f.Types)

	final, ok := g.Vertex("final")
	require.True(t, ok)
	assert.True(t, final.IsOutput)
	assert.True(t, final.Template["input_value"].Required)

	// edge input types fall back to the target field's declared types
	e := g.InEdges("shout")[0]
	assert.True(t, e.In.Contains(contract.AnyType))
	assert.Equal(t, []string{"shout"}, g.Predecessors("final"))
}

func TestParseErrors(t *testing.T) {
	reg := builtinRegistry(t)
	parse := func(src string) error {
		_, err := document.Parse(context.Background(), []byte(src), "flow.hcl", reg)
		return err
	}

	t.Run("unknown node type", func(t *testing.T) {
		err := parse(`node "does_not_exist" "a" {}`)
		assert.ErrorContains(t, err, "unknown node type 'does_not_exist'")
	})

	t.Run("unknown edge endpoint", func(t *testing.T) {
		err := parse(`
node "text_input" "a" {}
edge {
  source       = "a"
  target       = "missing"
  target_field = "input_value"
  output_types = ["Message"]
}
`)
		var structErr *graph.StructureError
		require.ErrorAs(t, err, &structErr)
		assert.ErrorContains(t, err, "unknown target vertex 'missing'")
	})

	t.Run("incompatible edge contract", func(t *testing.T) {
		err := parse(`
node "text_input" "a" {}
node "text_output" "b" {}
edge {
  source       = "a"
  target       = "b"
  target_field = "input_value"
  output_types = ["Embedding"]
}
`)
		var incompatErr *contract.IncompatibleEdgeError
		require.ErrorAs(t, err, &incompatErr)
	})

	t.Run("cycle", func(t *testing.T) {
		err := parse(`
node "template" "a" {}
node "template" "b" {}
edge {
  source       = "a"
  target       = "b"
  target_field = "value"
  output_types = ["Message"]
}
edge {
  source       = "b"
  target       = "a"
  target_field = "value"
  output_types = ["Message"]
}
`)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("malformed source", func(t *testing.T) {
		assert.ErrorContains(t, parse(`node "text_input" {`), "flow.hcl")
	})
}

func TestParseLegacyEdge(t *testing.T) {
	reg := builtinRegistry(t)

	src := `
node "text_input" "a" {}
node "template" "b" {}
edge {
  source       = "a"
  target       = "b"
  target_field = "value"
  type         = "TextMessage"
  base_classes = ["Message", "Text"]
  input_types  = ["Message"]
}
`
	g, err := document.Parse(context.Background(), []byte(src), "flow.hcl", reg)
	require.NoError(t, err)

	e := g.Edges()[0]
	assert.Equal(t, []string{"Message", "Text"}, e.Out.LegacyBases())
	assert.True(t, e.Out.Contains("TextMessage"))
}

func TestParseUnknownFieldKept(t *testing.T) {
	reg := builtinRegistry(t)

	src := `
node "text_input" "a" {
  field "retired_option" {
    value = 3
  }
}
`
	g, err := document.Parse(context.Background(), []byte(src), "flow.hcl", reg)
	require.NoError(t, err)

	v, _ := g.Vertex("a")
	f, ok := v.Template["retired_option"]
	require.True(t, ok, "fields unknown to the registry survive as extras")
	assert.Equal(t, float64(3), f.Value)
}

// graphSummary flattens the parts of a graph that round-tripping must
// preserve.
type graphSummary struct {
	Vertices map[string]vertexSummary
	Edges    []edgeSummary
}

type vertexSummary struct {
	Type        string
	DisplayName string
	Frozen      bool
	Fields      map[string]fieldSummary
}

type fieldSummary struct {
	Value    any
	HasValue bool
	Types    []string
	Required bool
	List     bool
}

type edgeSummary struct {
	Source, SourceOutput, Target, TargetField string
	Out, In                                   []string
	LegacyBases                               []string
	Loop                                      bool
}

func summarize(g *graph.Graph) graphSummary {
	s := graphSummary{Vertices: make(map[string]vertexSummary)}
	for _, v := range g.Vertices() {
		vs := vertexSummary{
			Type:        v.Type,
			DisplayName: v.DisplayName,
			Frozen:      v.Frozen,
			Fields:      make(map[string]fieldSummary),
		}
		for name, f := range v.Template {
			vs.Fields[name] = fieldSummary{
				Value:    f.Value,
				HasValue: f.HasValue,
				Types:    f.Types,
				Required: f.Required,
				List:     f.List,
			}
		}
		s.Vertices[v.ID] = vs
	}
	for _, e := range g.Edges() {
		s.Edges = append(s.Edges, edgeSummary{
			Source:       e.Source,
			SourceOutput: e.SourceOutput,
			Target:       e.Target,
			TargetField:  e.TargetField,
			Out:          e.Out.List(),
			In:           e.In.List(),
			LegacyBases:  e.Out.LegacyBases(),
			Loop:         e.Loop,
		})
	}
	sort.Slice(s.Edges, func(i, j int) bool {
		a, b := s.Edges[i], s.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.TargetField < b.TargetField
	})
	return s
}

func TestSerializeRoundTrip(t *testing.T) {
	reg := builtinRegistry(t)

	first, err := document.Parse(context.Background(), []byte(basicFlow), "flow.hcl", reg)
	require.NoError(t, err)

	out, err := document.Serialize(first)
	require.NoError(t, err)

	second, err := document.Parse(context.Background(), out, "roundtrip.hcl", reg)
	require.NoError(t, err)

	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Errorf("round trip changed the graph (-first +second):\n%s", diff)
	}
}

func TestSerializeRoundTripLegacyEdge(t *testing.T) {
	reg := builtinRegistry(t)

	src := `
node "text_input" "a" {}
node "template" "b" {
  frozen = true
}
edge {
  source       = "a"
  target       = "b"
  target_field = "value"
  type         = "TextMessage"
  base_classes = ["Message"]
  input_types  = ["Message"]
}
`
	first, err := document.Parse(context.Background(), []byte(src), "flow.hcl", reg)
	require.NoError(t, err)

	out, err := document.Serialize(first)
	require.NoError(t, err)

	second, err := document.Parse(context.Background(), out, "roundtrip.hcl", reg)
	require.NoError(t, err)

	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Errorf("round trip changed the graph (-first +second):\n%s", diff)
	}
	b, _ := second.Vertex("b")
	assert.True(t, b.Frozen)
}
