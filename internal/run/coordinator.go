// Package run drives one flow run end to end: layered concurrent dispatch,
// build caching, loop delegation, incremental event streaming with
// keep-alive signaling, and graceful cancellation.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vk/flowgrid/internal/cache"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/loop"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/scheduler"
)

// Coordinator executes runs against one registry instance.
type Coordinator struct {
	reg *registry.Registry
}

// New creates a coordinator backed by reg.
func New(reg *registry.Registry) *Coordinator {
	return &Coordinator{reg: reg}
}

// runState bundles everything one run carries through the call chain.
type runState struct {
	g      *graph.Graph
	sched  *scheduler.Scheduler
	store  *cache.Store
	opts   Options
	emit   func(Event)
	start  time.Time
	runID  string
	bodies map[string]*loop.Body // loop vertex id -> extracted body
}

// Start launches a run and returns immediately with its handle. The
// returned error covers setup problems only; execution failures arrive
// through events and results.
func (c *Coordinator) Start(ctx context.Context, g *graph.Graph, opts Options) (*Handle, error) {
	opts = opts.withDefaults()

	sched, err := scheduler.New(g, opts.StartID, opts.StopID)
	if err != nil {
		return nil, err
	}

	// Loop bodies run only inside iterations, never in the outer dispatch.
	bodies := make(map[string]*loop.Body)
	for _, v := range g.Vertices() {
		def, ok := c.reg.Definition(v.Type)
		if !ok {
			return nil, fmt.Errorf("vertex '%s': unknown node type '%s'", v.ID, v.Type)
		}
		if !def.Caps.Loop {
			continue
		}
		body, err := loop.ExtractBody(g, v.ID, "item", "feedback")
		if err != nil {
			return nil, err
		}
		bodies[v.ID] = body
		for id := range body.Members {
			g.Inactivate(id)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		RunID:  uuid.New(),
		events: make(chan Event, opts.EventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	raw := make(chan Event)
	go pumpEvents(raw, h.events, opts.KeepAlive)

	rs := &runState{
		g:      g,
		sched:  sched,
		store:  opts.Cache,
		opts:   opts,
		start:  time.Now(),
		runID:  h.RunID.String(),
		bodies: bodies,
	}
	rs.emit = func(ev Event) {
		ev.RunID = rs.runID
		ev.Elapsed = time.Since(rs.start)
		raw <- ev
	}

	go func() {
		defer close(h.done)
		defer close(raw)
		defer cancel()
		h.results, h.err = c.run(runCtx, rs)
	}()

	return h, nil
}

// pumpEvents forwards raw events to the consumer channel and injects a
// keep-alive whenever the sink stays idle past the configured interval.
// Keep-alives are best-effort: a consumer that is not draining the channel
// gets backpressure on real events, not a pile of fillers.
func pumpEvents(raw <-chan Event, out chan<- Event, keepAlive time.Duration) {
	defer close(out)
	if keepAlive <= 0 {
		for ev := range raw {
			out <- ev
		}
		return
	}

	timer := time.NewTimer(keepAlive)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-raw:
			if !ok {
				return
			}
			out <- ev
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(keepAlive)
		case <-timer.C:
			select {
			case out <- Event{Type: EventKeepAlive}:
			default:
			}
			timer.Reset(keepAlive)
		}
	}
}

// run is the layer dispatch loop. Vertices in the same ready layer build
// concurrently, bounded by opts.Workers; a vertex failure fails its own
// dependents but never halts sibling branches.
func (c *Coordinator) run(ctx context.Context, rs *runState) ([]Result, error) {
	logger := ctxlog.FromContext(ctx).With("run_id", rs.runID)
	rs.emit(Event{Type: EventRunStarted})

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("Run cancelled; ceasing layer dispatch.")
			runErr = err
			break
		}
		layer := rs.sched.NextReadyLayer()
		if len(layer) == 0 {
			if rs.sched.Done() {
				break
			}
			if rs.sched.Stalled() {
				runErr = fmt.Errorf("run stalled: pending vertices with no runnable layer")
				break
			}
			break
		}
		logger.Debug("Dispatching layer.", "vertices", layer)

		eg := new(errgroup.Group)
		eg.SetLimit(rs.opts.Workers)
		for _, id := range layer {
			id := id
			eg.Go(func() error {
				c.buildVertex(ctx, rs, id)
				return nil
			})
		}
		// Workers report failures on the vertices themselves.
		_ = eg.Wait()
	}

	results := rs.collectResults()
	rs.emit(Event{Type: EventRunFinished})
	return results, runErr
}

// collectResults assembles the final per-output result list: every
// requested vertex that completed, tagged valid or invalid, with a
// structured error for failures.
func (rs *runState) collectResults() []Result {
	wanted := rs.outputSet()
	var results []Result
	for _, v := range rs.g.Vertices() {
		if _, ok := wanted[v.ID]; !ok {
			continue
		}
		switch v.State() {
		case graph.StateBuilt:
			value, repr := v.Built()
			results = append(results, Result{VertexID: v.ID, Valid: true, Value: value, Repr: repr})
		case graph.StateFailed:
			results = append(results, Result{VertexID: v.ID, Valid: false, Err: v.Err()})
		}
	}
	return results
}

func (rs *runState) outputSet() map[string]struct{} {
	wanted := make(map[string]struct{})
	if len(rs.opts.Outputs) > 0 {
		for _, id := range rs.opts.Outputs {
			wanted[id] = struct{}{}
		}
		return wanted
	}
	for _, v := range rs.g.Vertices() {
		if v.IsOutput && rs.sched.InScope(v.ID) {
			wanted[v.ID] = struct{}{}
		}
	}
	if len(wanted) > 0 {
		return wanted
	}
	for _, v := range rs.g.Vertices() {
		if rs.sched.InScope(v.ID) {
			wanted[v.ID] = struct{}{}
		}
	}
	return wanted
}

// RunSubgraph executes a loop body subgraph to completion, sequentially and
// silently: no events reach the outer sink, and any vertex failure aborts
// the iteration. Implements loop.Runner.
func (c *Coordinator) RunSubgraph(ctx context.Context, g *graph.Graph) error {
	sched, err := scheduler.New(g, "", "")
	if err != nil {
		return err
	}
	rs := &runState{
		g:      g,
		sched:  sched,
		store:  cache.New(),
		opts:   Options{Workers: 1}.withDefaults(),
		emit:   func(Event) {},
		start:  time.Now(),
		bodies: make(map[string]*loop.Body),
	}

	// Nested loops inside the body are extracted the same way as at the top
	// level.
	for _, v := range g.Vertices() {
		def, ok := c.reg.Definition(v.Type)
		if !ok {
			return fmt.Errorf("vertex '%s': unknown node type '%s'", v.ID, v.Type)
		}
		if !def.Caps.Loop {
			continue
		}
		body, err := loop.ExtractBody(g, v.ID, "item", "feedback")
		if err != nil {
			return err
		}
		rs.bodies[v.ID] = body
		for id := range body.Members {
			g.Inactivate(id)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		layer := rs.sched.NextReadyLayer()
		if len(layer) == 0 {
			break
		}
		for _, id := range layer {
			c.buildVertex(ctx, rs, id)
		}
	}

	for _, v := range g.Vertices() {
		if !rs.sched.InScope(v.ID) {
			continue
		}
		if v.State() == graph.StateFailed {
			return v.Err()
		}
	}
	return nil
}
