package run

import "fmt"

// NodeBuildError wraps a failure raised by a node implementation's build or
// stream hook. It is recorded on the vertex and surfaced to the client as
// an invalid result; unrelated branches keep running.
type NodeBuildError struct {
	VertexID string
	Err      error
}

func (e *NodeBuildError) Error() string {
	return fmt.Sprintf("vertex '%s' build failed: %v", e.VertexID, e.Err)
}

func (e *NodeBuildError) Unwrap() error { return e.Err }
