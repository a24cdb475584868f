package graph

import "fmt"

// StructureError reports a structural defect in a flow document: an edge
// referencing an unknown vertex, a duplicate vertex id, or a cycle among
// ordinary edges. It is fatal at construction time; a flow carrying one
// cannot run.
type StructureError struct {
	msg string
}

func (e *StructureError) Error() string { return e.msg }

func structureErrorf(format string, args ...any) *StructureError {
	return &StructureError{msg: fmt.Sprintf(format, args...)}
}

// RequiredInputError reports a required, non-defaulted field that has no
// fulfilling edge and no literal value. Fatal for the vertex and its
// transitive successors; sibling branches are unaffected.
type RequiredInputError struct {
	VertexID string
	Field    string
}

func (e *RequiredInputError) Error() string {
	return fmt.Sprintf("vertex '%s': required input '%s' has no value and no incoming edge", e.VertexID, e.Field)
}
