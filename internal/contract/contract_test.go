package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	ts := Normalize([]string{"Message", " Text ", "", "Message"})
	assert.True(t, ts.Contains("Message"))
	assert.True(t, ts.Contains("Text"))
	assert.False(t, ts.Contains(""))
	assert.Equal(t, []string{"Message", "Text"}, ts.List())
	assert.Nil(t, ts.LegacyBases())
}

func TestNormalizeLegacy(t *testing.T) {
	ts := NormalizeLegacy("LLMChain", []string{"Chain", "Runnable", ""})
	assert.True(t, ts.Contains("LLMChain"))
	assert.False(t, ts.Contains("Chain"))
	assert.Equal(t, []string{"Chain", "Runnable"}, ts.LegacyBases())
}

func TestCompatible(t *testing.T) {
	t.Run("any sentinel accepts everything", func(t *testing.T) {
		out := Normalize([]string{"Message"})
		in := Normalize([]string{AnyType})
		assert.True(t, Compatible(out, in))
	})

	t.Run("intersection of declared sets", func(t *testing.T) {
		out := Normalize([]string{"Message", "Data"})
		in := Normalize([]string{"Text", "Data"})
		assert.True(t, Compatible(out, in))
	})

	t.Run("disjoint sets are rejected", func(t *testing.T) {
		out := Normalize([]string{"Message"})
		in := Normalize([]string{"Embedding"})
		assert.False(t, Compatible(out, in))
	})

	t.Run("legacy base class chain matches", func(t *testing.T) {
		out := NormalizeLegacy("LLMChain", []string{"Chain", "Runnable"})
		in := Normalize([]string{"Chain"})
		assert.True(t, Compatible(out, in))
	})

	t.Run("legacy declared type still matches directly", func(t *testing.T) {
		out := NormalizeLegacy("LLMChain", []string{"Chain"})
		in := Normalize([]string{"LLMChain"})
		assert.True(t, Compatible(out, in))
	})

	t.Run("empty target set matches nothing", func(t *testing.T) {
		out := Normalize([]string{"Message"})
		in := Normalize(nil)
		assert.False(t, Compatible(out, in))
	})
}

func TestWantsText(t *testing.T) {
	assert.True(t, WantsText(Normalize([]string{TextType})))
	assert.False(t, WantsText(Normalize([]string{TextType, "Message"})))
	assert.False(t, WantsText(Normalize([]string{"Message"})))
}

func TestIncompatibleEdgeError(t *testing.T) {
	err := &IncompatibleEdgeError{
		SourceID:    "a",
		SourceType:  "text_input",
		TargetID:    "b",
		TargetType:  "combine",
		TargetField: "texts",
		OutputTypes: []string{"Message"},
		InputTypes:  []string{"Embedding"},
	}
	require.ErrorContains(t, err, "a(text_input)")
	require.ErrorContains(t, err, "b(combine).texts")
	require.ErrorContains(t, err, "Embedding")
}
