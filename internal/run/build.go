package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/loop"
)

// buildVertex binds inputs, builds one vertex through the cache, records
// the outcome, and fulfills outgoing edges. Failures are recorded on the
// vertex and propagated to dependents; they never abort the run.
func (c *Coordinator) buildVertex(ctx context.Context, rs *runState, id string) {
	logger := ctxlog.FromContext(ctx).With("vertex", id)
	v, ok := rs.g.Vertex(id)
	if !ok {
		return
	}
	rs.sched.MarkBuilding(id)

	if err := rs.bindInputs(v); err != nil {
		logger.Warn("Input binding failed.", "error", err)
		rs.sched.MarkFailed(id, err)
		rs.emit(Event{Type: EventVertexBuilt, VertexID: id, Valid: false, Err: err.Error()})
		return
	}

	var value any
	var repr string
	var err error
	if body, isLoop := rs.bodies[id]; isLoop {
		value, repr, err = c.buildLoop(ctx, rs, v, body)
	} else {
		value, repr, err = rs.store.Build(ctx, id, func(ctx context.Context) (any, string, error) {
			return c.invokeHandler(ctx, rs, v)
		})
	}

	if err != nil {
		var iterErr *loop.IterationError
		var nodeErr *NodeBuildError
		if !errors.As(err, &iterErr) && !errors.As(err, &nodeErr) {
			err = &NodeBuildError{VertexID: id, Err: err}
		}
		logger.Warn("Vertex build failed.", "error", err)
		rs.sched.MarkFailed(id, err)
		rs.emit(Event{Type: EventVertexBuilt, VertexID: id, Valid: false, Err: err.Error()})
		return
	}

	v.SetBuilt(value, repr)
	rs.fulfillOutEdges(v, value, repr)
	logger.Debug("Vertex built.", "repr", repr)
	rs.emit(Event{Type: EventVertexBuilt, VertexID: id, Valid: true, Repr: repr})
}

// bindInputs seeds literal parameters, backfills any unfulfilled incoming
// edges whose sources are already built (resumed partial runs), and
// enforces required inputs.
func (rs *runState) bindInputs(v *graph.Vertex) error {
	edged := rs.g.EdgedFields(v.ID)
	v.BindLiterals(edged)

	for _, e := range rs.g.InEdges(v.ID) {
		if e.Loop || e.Fulfilled() {
			continue
		}
		src, ok := rs.g.Vertex(e.Source)
		if !ok {
			continue
		}
		if src.State() == graph.StateBuilt {
			value, repr := src.Built()
			e.Fulfill(v, value, repr)
		} else if value, repr, ok := rs.store.Get(e.Source); ok {
			e.Fulfill(v, value, repr)
		}
	}

	for name, f := range v.Template {
		if !f.Required {
			continue
		}
		if _, ok := v.Param(name); ok {
			continue
		}
		if _, ok := edged[name]; ok {
			// An edge targets this field but never fulfilled; the scheduler
			// would have failed this vertex already if the source failed, so
			// reaching here means a loop-feedback-only field.
			continue
		}
		return &graph.RequiredInputError{VertexID: v.ID, Field: name}
	}
	return nil
}

// invokeHandler runs the node implementation's build or stream hook.
func (c *Coordinator) invokeHandler(ctx context.Context, rs *runState, v *graph.Vertex) (any, string, error) {
	def, ok := c.reg.Definition(v.Type)
	if !ok {
		return nil, "", fmt.Errorf("unknown node type '%s'", v.Type)
	}
	handler, ok := c.reg.Handler(v.Type)
	if !ok {
		return nil, "", fmt.Errorf("node type '%s' has no registered handler", v.Type)
	}

	params := v.Params()
	if def.Caps.Stream && handler.Stream != nil {
		return c.consumeStream(ctx, rs, v.ID, params, handler.Stream)
	}
	return handler.Build(ctx, params)
}

// consumeStream drains a streaming handler, emitting a chunk event per
// partial output and a close event at the end. The built value is the
// concatenation of chunks. Cancellation is honored at chunk boundaries.
func (c *Coordinator) consumeStream(
	ctx context.Context,
	rs *runState,
	id string,
	params map[string]any,
	stream func(context.Context, map[string]any) (<-chan string, error),
) (any, string, error) {
	ch, err := stream(ctx, params)
	if err != nil {
		return nil, "", err
	}

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case chunk, open := <-ch:
			if !open {
				rs.emit(Event{Type: EventStreamClosed, VertexID: id, Valid: true})
				text := sb.String()
				return text, text, nil
			}
			sb.WriteString(chunk)
			rs.emit(Event{Type: EventStreamChunk, VertexID: id, Chunk: chunk})
		}
	}
}

// buildLoop suspends normal dispatch for the loop vertex and drives one
// private sub-run per input item. The collected per-iteration outputs
// become the loop vertex's own built value.
func (c *Coordinator) buildLoop(ctx context.Context, rs *runState, v *graph.Vertex, body *loop.Body) (any, string, error) {
	items := loopItems(v)
	outputs, err := loop.Run(ctx, rs.g, body, items, c)
	if err != nil {
		return nil, "", err
	}
	return outputs, fmt.Sprintf("%d iterations", len(outputs)), nil
}

// loopItems reads the loop's bound items parameter, tolerating a scalar by
// treating it as a single-item sequence. A single incoming edge that carries
// a whole list is unwrapped, so one list-producing source and several
// scalar-producing sources both iterate per element.
func loopItems(v *graph.Vertex) []any {
	raw, ok := v.Param("items")
	if !ok || raw == nil {
		return nil
	}
	switch items := raw.(type) {
	case []any:
		if len(items) == 1 {
			switch inner := items[0].(type) {
			case []any:
				return inner
			case []string:
				out := make([]any, len(inner))
				for i, s := range inner {
					out[i] = s
				}
				return out
			}
		}
		return items
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out
	default:
		return []any{raw}
	}
}

// fulfillOutEdges pushes the built result across every ordinary outgoing
// edge. List-field targets receive the value at the edge's declared
// position regardless of which source finished first.
func (rs *runState) fulfillOutEdges(v *graph.Vertex, value any, repr string) {
	for _, e := range rs.g.OutEdges(v.ID) {
		if e.Loop {
			continue
		}
		target, ok := rs.g.Vertex(e.Target)
		if !ok {
			continue
		}
		e.Fulfill(target, value, repr)
	}
}
