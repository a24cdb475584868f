package envvar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvVar(t *testing.T) {
	t.Run("reads a set variable", func(t *testing.T) {
		t.Setenv("FLOWGRID_TEST_VAR", "hello")
		value, repr, err := buildEnvVar(context.Background(), map[string]any{"name": "FLOWGRID_TEST_VAR"})
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
		assert.Equal(t, "hello", repr)
	})

	t.Run("falls back to the default", func(t *testing.T) {
		value, _, err := buildEnvVar(context.Background(), map[string]any{
			"name":    "FLOWGRID_TEST_UNSET",
			"default": "fallback",
		})
		require.NoError(t, err)
		assert.Equal(t, "fallback", value)
	})

	t.Run("unset without a default is an error", func(t *testing.T) {
		_, _, err := buildEnvVar(context.Background(), map[string]any{"name": "FLOWGRID_TEST_UNSET"})
		assert.ErrorContains(t, err, "not set")
	})

	t.Run("missing name is an error", func(t *testing.T) {
		_, _, err := buildEnvVar(context.Background(), map[string]any{})
		assert.ErrorContains(t, err, "requires a variable name")
	})
}
