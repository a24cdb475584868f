package run

import (
	"context"

	"github.com/google/uuid"
)

// Result is the final outcome of one requested output vertex.
type Result struct {
	VertexID string
	Valid    bool
	Value    any
	Repr     string
	Err      error
}

// Handle is the caller's view of an in-flight run: the event stream, a
// cancel switch, and the final results.
type Handle struct {
	RunID uuid.UUID

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	// written by the coordinator goroutine before done is closed
	results []Result
	err     error
}

// Events returns the stream of build/stream/keep-alive events. The channel
// is closed after the final run_finished event.
func (h *Handle) Events() <-chan Event { return h.events }

// Cancel requests cooperative cancellation: no further layers are
// dispatched and streaming vertices stop at the next chunk boundary. An
// in-flight build finishes unless the node implementation honors ctx.
func (h *Handle) Cancel() { h.cancel() }

// Wait blocks until the run completes and returns the per-output results.
// Vertex-level failures are reported inside the results, not as the error;
// the error reports run-level conditions such as cancellation.
func (h *Handle) Wait() ([]Result, error) {
	<-h.done
	return h.results, h.err
}
