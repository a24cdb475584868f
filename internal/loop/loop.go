// Package loop extracts the induced body subgraph of a loop vertex and
// drives its isolated re-execution, once per input item, in strict input
// order. Iterations share no mutable graph state with each other; whatever
// a node implementation persists across calls is its own business.
package loop

import (
	"context"
	"fmt"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
)

// IterationError aborts the whole loop: no partial-iteration results are
// salvaged and the failure surfaces as the loop vertex's own failure.
type IterationError struct {
	LoopID    string
	Iteration int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("loop '%s' iteration %d failed: %v", e.LoopID, e.Iteration, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }

// Entry names the vertex field into which the current item is injected.
type Entry struct {
	VertexID string
	Field    string
}

// Body is the extracted loop body: the induced vertex-id set, the entry
// injection points fed by the loop's body output, and the vertex whose
// result feeds the loop's feedback input.
type Body struct {
	LoopID         string
	Members        map[string]struct{}
	Entries        []Entry
	FeedbackSource string
}

// Runner executes one fully prepared body subgraph to completion. The run
// coordinator provides this; iterations are never parallelized.
type Runner interface {
	RunSubgraph(ctx context.Context, g *graph.Graph) error
}

// ExtractBody collects the body of loopID: a breadth-first walk from the
// vertices connected to the bodyOutput handle until it reaches the vertex
// feeding the feedbackField input (inclusive), then a backward walk adding
// every transitive predecessor of the collected set except the loop vertex
// itself, so shared supporting vertices outside the forward path are
// included.
func ExtractBody(g *graph.Graph, loopID, bodyOutput, feedbackField string) (*Body, error) {
	b := &Body{LoopID: loopID, Members: make(map[string]struct{})}

	for _, e := range g.OutEdges(loopID) {
		if e.Loop || e.SourceOutput != bodyOutput {
			continue
		}
		b.Entries = append(b.Entries, Entry{VertexID: e.Target, Field: e.TargetField})
	}
	if len(b.Entries) == 0 {
		return nil, fmt.Errorf("loop '%s': no edges leave the '%s' body output", loopID, bodyOutput)
	}

	for _, e := range g.InEdges(loopID) {
		if e.TargetField == feedbackField {
			b.FeedbackSource = e.Source
			break
		}
	}
	if b.FeedbackSource == "" {
		return nil, fmt.Errorf("loop '%s': no edge feeds the '%s' input", loopID, feedbackField)
	}

	// Forward pass: walk successors from the entry vertices, stopping at the
	// feedback source.
	queue := make([]string, 0, len(b.Entries))
	for _, ent := range b.Entries {
		queue = append(queue, ent.VertexID)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := b.Members[cur]; ok || cur == loopID {
			continue
		}
		b.Members[cur] = struct{}{}
		if cur == b.FeedbackSource {
			continue
		}
		queue = append(queue, g.Successors(cur)...)
	}
	if _, ok := b.Members[b.FeedbackSource]; !ok {
		return nil, fmt.Errorf("loop '%s': feedback source '%s' is not reachable from the '%s' output", loopID, b.FeedbackSource, bodyOutput)
	}

	// Backward pass: pull in supporting predecessors of everything collected
	// so far, e.g. a shared configuration vertex feeding the body from the
	// side.
	backQueue := make([]string, 0, len(b.Members))
	for id := range b.Members {
		backQueue = append(backQueue, id)
	}
	for len(backQueue) > 0 {
		cur := backQueue[0]
		backQueue = backQueue[1:]
		for _, pred := range g.Predecessors(cur) {
			if pred == loopID {
				continue
			}
			if _, ok := b.Members[pred]; ok {
				continue
			}
			b.Members[pred] = struct{}{}
			backQueue = append(backQueue, pred)
		}
	}

	return b, nil
}

// Run executes the body once per item, strictly in input order. Each
// iteration gets a fresh copy of the induced subgraph with the current item
// injected at every entry point; the feedback source's built value is
// collected as that iteration's output. The first failing iteration aborts
// the loop.
func Run(ctx context.Context, parent *graph.Graph, b *Body, items []any, runner Runner) ([]any, error) {
	logger := ctxlog.FromContext(ctx).With("loop", b.LoopID)
	outputs := make([]any, 0, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, &IterationError{LoopID: b.LoopID, Iteration: i, Err: err}
		}
		logger.Debug("Starting loop iteration.", "iteration", i)

		sub := parent.Induced(b.Members)
		for _, ent := range b.Entries {
			v, ok := sub.Vertex(ent.VertexID)
			if !ok {
				return nil, &IterationError{
					LoopID: b.LoopID, Iteration: i,
					Err: fmt.Errorf("entry vertex '%s' missing from body subgraph", ent.VertexID),
				}
			}
			// Injected as a template literal so literal binding carries it
			// into the resolved params of the fresh copy.
			f, ok := v.Template[ent.Field]
			if !ok {
				f = &graph.Field{Name: ent.Field}
				v.Template[ent.Field] = f
			}
			f.Value = item
			f.HasValue = true
		}

		if err := runner.RunSubgraph(ctx, sub); err != nil {
			return nil, &IterationError{LoopID: b.LoopID, Iteration: i, Err: err}
		}

		fv, ok := sub.Vertex(b.FeedbackSource)
		if !ok || fv.State() != graph.StateBuilt {
			err := fmt.Errorf("feedback source '%s' did not build", b.FeedbackSource)
			if ok {
				if verr := fv.Err(); verr != nil {
					err = verr
				}
			}
			return nil, &IterationError{LoopID: b.LoopID, Iteration: i, Err: err}
		}
		value, _ := fv.Built()
		outputs = append(outputs, value)
		logger.Debug("Loop iteration complete.", "iteration", i)
	}

	return outputs, nil
}
