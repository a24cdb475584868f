package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowgrid/internal/contract"
	"github.com/vk/flowgrid/internal/graph"
)

// diamond builds a -> (b, c) -> d.
func diamond(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.AddVertex(graph.NewVertex(id, "test")))
	}
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		require.NoError(t, g.AddEdge(&graph.Edge{
			Source:      pair[0],
			Target:      pair[1],
			TargetField: "input_" + pair[0],
			Out:         contract.Normalize([]string{"Message"}),
			In:          contract.Normalize([]string{"Message"}),
		}))
	}
	return g
}

func buildAll(s *Scheduler, layer []string) {
	for _, id := range layer {
		s.MarkBuilding(id)
		s.MarkBuilt(id)
	}
}

func TestNextReadyLayerProgression(t *testing.T) {
	g := diamond(t)
	s, err := New(g, "", "")
	require.NoError(t, err)

	layer := s.NextReadyLayer()
	assert.Equal(t, []string{"a"}, layer)
	buildAll(s, layer)

	layer = s.NextReadyLayer()
	assert.Equal(t, []string{"b", "c"}, layer)
	buildAll(s, layer)

	layer = s.NextReadyLayer()
	assert.Equal(t, []string{"d"}, layer)
	buildAll(s, layer)

	assert.Empty(t, s.NextReadyLayer())
	assert.True(t, s.Done())
}

func TestLayersTopologicalProperty(t *testing.T) {
	g := diamond(t)
	s, err := New(g, "", "")
	require.NoError(t, err)

	position := make(map[string]int)
	for i, layer := range s.Layers() {
		for _, id := range layer {
			position[id] = i
		}
	}
	require.Len(t, position, 4)
	// every vertex strictly after all of its predecessors
	for _, v := range g.Vertices() {
		for _, pred := range g.Predecessors(v.ID) {
			assert.Greater(t, position[v.ID], position[pred],
				"vertex %s must come after predecessor %s", v.ID, pred)
		}
	}
}

func TestFailurePropagation(t *testing.T) {
	// a -> b -> d and a -> c -> d; failing b must fail d but not c.
	g := diamond(t)
	s, err := New(g, "", "")
	require.NoError(t, err)

	buildAll(s, s.NextReadyLayer()) // a
	s.MarkBuilding("b")
	s.MarkFailed("b", assert.AnError)

	bVertex, _ := g.Vertex("b")
	assert.Equal(t, graph.StateFailed, bVertex.State())

	dVertex, _ := g.Vertex("d")
	require.Equal(t, graph.StateFailed, dVertex.State())
	var depErr *DependencyFailedError
	require.ErrorAs(t, dVertex.Err(), &depErr)
	assert.Equal(t, "b", depErr.Dependency)

	// sibling branch unaffected and still schedulable
	assert.Equal(t, []string{"c"}, s.NextReadyLayer())
	buildAll(s, []string{"c"})
	assert.True(t, s.Done())
}

func TestStartStopBounds(t *testing.T) {
	// chain a -> b -> c -> d
	g := graph.New()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		require.NoError(t, g.AddVertex(graph.NewVertex(id, "test")))
	}
	for i := 1; i < len(ids); i++ {
		require.NoError(t, g.AddEdge(&graph.Edge{
			Source:      ids[i-1],
			Target:      ids[i],
			TargetField: "input",
			Out:         contract.Normalize([]string{"Message"}),
			In:          contract.Normalize([]string{"Message"}),
		}))
	}

	t.Run("start bound drops upstream vertices", func(t *testing.T) {
		s, err := New(g, "b", "")
		require.NoError(t, err)
		assert.False(t, s.InScope("a"))
		assert.True(t, s.InScope("b"))
		// out-of-scope predecessor counts as satisfied
		assert.Equal(t, []string{"b"}, s.NextReadyLayer())
	})

	t.Run("stop bound drops downstream vertices", func(t *testing.T) {
		s, err := New(g, "", "c")
		require.NoError(t, err)
		assert.True(t, s.InScope("a"))
		assert.True(t, s.InScope("c"))
		assert.False(t, s.InScope("d"))
	})

	t.Run("both bounds intersect", func(t *testing.T) {
		s, err := New(g, "b", "c")
		require.NoError(t, err)
		assert.False(t, s.InScope("a"))
		assert.True(t, s.InScope("b"))
		assert.True(t, s.InScope("c"))
		assert.False(t, s.InScope("d"))
	})

	t.Run("unknown bounds error", func(t *testing.T) {
		_, err := New(g, "dne", "")
		assert.ErrorContains(t, err, "start vertex 'dne' not found")
		_, err = New(g, "", "dne")
		assert.ErrorContains(t, err, "stop vertex 'dne' not found")
	})

	g.ResetRun()
}

func TestInactiveVerticesAreSkipped(t *testing.T) {
	g := diamond(t)
	g.Inactivate("b")
	s, err := New(g, "", "")
	require.NoError(t, err)

	buildAll(s, s.NextReadyLayer()) // a
	assert.Equal(t, []string{"c"}, s.NextReadyLayer())
	buildAll(s, []string{"c"})

	// d only waits on in-scope predecessors
	assert.Equal(t, []string{"d"}, s.NextReadyLayer())
}

func TestStalled(t *testing.T) {
	g := diamond(t)
	s, err := New(g, "", "")
	require.NoError(t, err)
	assert.False(t, s.Stalled(), "root layer is ready")

	buildAll(s, s.NextReadyLayer())
	s.MarkBuilding("b")
	assert.False(t, s.Stalled(), "building vertex means progress")
}
