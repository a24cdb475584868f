package graph

// CheckCycles verifies that the ordinary edges form a DAG. Loop-feedback
// edges are exempt; they are driven by the loop executor, never by the
// scheduler. A cycle is a construction-time structural error.
func (g *Graph) CheckCycles() error {
	g.buildMaps()

	// Depth-first search with the classic three-color scheme: permanent
	// nodes are fully explored, temporary nodes are on the current stack.
	permanent := make(map[string]bool, len(g.vertices))
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return structureErrorf("cycle detected among ordinary edges involving vertex '%s'", id)
		}
		temporary[id] = true
		for _, next := range g.succ[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
