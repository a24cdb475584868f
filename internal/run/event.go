package run

import "time"

// EventType discriminates the events a run emits to its consumer.
type EventType string

const (
	// EventRunStarted opens the event sequence of a run.
	EventRunStarted EventType = "run_started"
	// EventVertexBuilt reports one vertex finishing, valid or invalid.
	EventVertexBuilt EventType = "vertex_built"
	// EventStreamChunk carries one partial output chunk of a streaming vertex.
	EventStreamChunk EventType = "stream_chunk"
	// EventStreamClosed terminates a vertex's chunk sequence.
	EventStreamClosed EventType = "stream_closed"
	// EventKeepAlive is emitted on an idle sink to hold upstream transports open.
	EventKeepAlive EventType = "keep_alive"
	// EventRunFinished closes the event sequence.
	EventRunFinished EventType = "run_finished"
)

// Event is one structured build/stream notification. Elapsed is cumulative
// time since the run started.
type Event struct {
	Type     EventType
	RunID    string
	VertexID string
	Valid    bool
	Repr     string
	Chunk    string
	Err      string
	Elapsed  time.Duration
}
