package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScript(t *testing.T) {
	t.Run("returns the script result", func(t *testing.T) {
		value, repr, err := buildScript(context.Background(), map[string]any{
			"code": `return input.toUpperCase() + "!"`,
			"input": "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, "HELLO!", value)
		assert.Equal(t, "HELLO!", repr)
	})

	t.Run("input may be structured", func(t *testing.T) {
		value, _, err := buildScript(context.Background(), map[string]any{
			"code":  `return input.a + input.b`,
			"input": map[string]any{"a": int64(2), "b": int64(3)},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 5, value)
	})

	t.Run("empty code is rejected", func(t *testing.T) {
		_, _, err := buildScript(context.Background(), map[string]any{})
		assert.ErrorContains(t, err, "non-empty code")
	})

	t.Run("runtime errors are wrapped", func(t *testing.T) {
		_, _, err := buildScript(context.Background(), map[string]any{
			"code": `throw new Error("nope")`,
		})
		assert.ErrorContains(t, err, "script execution")
	})
}
