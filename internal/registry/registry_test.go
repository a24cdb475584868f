package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgrid/internal/schema"
)

func noopBuild(_ context.Context, _ map[string]any) (any, string, error) {
	return nil, "", nil
}

func minimalDef(typeTag string) *schema.NodeTypeDef {
	return &schema.NodeTypeDef{
		Type:    typeTag,
		Inputs:  []*schema.InputDef{{Name: "input", Types: []string{"any"}}},
		Outputs: []*schema.OutputDef{{Name: "message", Types: []string{"any"}}},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(minimalDef("alpha"), &Handler{Build: noopBuild})

	def, ok := r.Definition("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", def.Type)

	h, ok := r.Handler("alpha")
	require.True(t, ok)
	assert.NotNil(t, h.Build)

	_, ok = r.Definition("missing")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"alpha"}, r.Types())
}

func TestRegisterPanics(t *testing.T) {
	r := New()
	r.Register(minimalDef("alpha"), &Handler{Build: noopBuild})

	assert.PanicsWithValue(t, "registry: node type 'alpha' already registered", func() {
		r.Register(minimalDef("alpha"), &Handler{Build: noopBuild})
	})
	assert.Panics(t, func() {
		r.Register(&schema.NodeTypeDef{}, &Handler{Build: noopBuild})
	})
	assert.Panics(t, func() {
		r.Register(nil, &Handler{Build: noopBuild})
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("well-formed registry passes", func(t *testing.T) {
		r := New()
		r.Register(minimalDef("alpha"), &Handler{Build: noopBuild})
		require.NoError(t, r.Validate(ctx))
	})

	t.Run("missing build handler", func(t *testing.T) {
		r := New()
		r.Register(minimalDef("alpha"), nil)
		err := r.Validate(ctx)
		assert.ErrorContains(t, err, "no build handler registered")
	})

	t.Run("stream capability without a stream handler", func(t *testing.T) {
		r := New()
		def := minimalDef("alpha")
		def.Caps.Stream = true
		r.Register(def, &Handler{Build: noopBuild})
		err := r.Validate(ctx)
		assert.ErrorContains(t, err, "no stream handler")
	})

	t.Run("loop type shape", func(t *testing.T) {
		r := New()
		r.Register(&schema.NodeTypeDef{
			Type: "iterate",
			Inputs: []*schema.InputDef{
				{Name: "items", Types: []string{"any"}, List: true},
				{Name: "feedback", Types: []string{"any"}},
			},
			Outputs: []*schema.OutputDef{
				{Name: "item", Types: []string{"any"}},
				{Name: "result", Types: []string{"any"}},
			},
			Caps: schema.Capabilities{Loop: true},
		}, nil)
		require.NoError(t, r.Validate(ctx))
	})

	t.Run("loop type with a handler is rejected", func(t *testing.T) {
		r := New()
		def := minimalDef("iterate")
		def.Caps.Loop = true
		r.Register(def, &Handler{Build: noopBuild})
		err := r.Validate(ctx)
		assert.ErrorContains(t, err, "engine-driven")
		assert.ErrorContains(t, err, "missing 'item' body output")
		assert.ErrorContains(t, err, "missing 'feedback' input")
	})

	t.Run("duplicate and untyped handles", func(t *testing.T) {
		r := New()
		r.Register(&schema.NodeTypeDef{
			Type: "alpha",
			Inputs: []*schema.InputDef{
				{Name: "input", Types: []string{"any"}},
				{Name: "input", Types: []string{"any"}},
				{Name: "bare"},
			},
		}, &Handler{Build: noopBuild})
		err := r.Validate(ctx)
		assert.ErrorContains(t, err, "duplicate input 'input'")
		assert.ErrorContains(t, err, "input 'bare' declares no accepted types")
	})
}
