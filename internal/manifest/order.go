package manifest

// ExecutionOrder returns the calls in deterministic topological order:
// every call appears after all calls it depends on, and ties are broken by
// insertion order (Kahn's algorithm, processing ready nodes oldest-first).
// A dangling reference left by a forced removal returns an
// *UnknownDependencyError; a cyclic graph returns a
// *CircularDependencyError naming one cycle.
func (s *Store) ExecutionOrder() ([]*Call, error) {
	indegree := make(map[string]int, len(s.calls))
	dependents := make(map[string][]string, len(s.calls))

	for _, c := range s.calls {
		indegree[c.ID] += 0
		for _, dep := range c.DependsOn {
			if _, exists := s.index[dep]; !exists {
				return nil, &UnknownDependencyError{ID: c.ID, Dependency: dep}
			}
			indegree[c.ID]++
			dependents[dep] = append(dependents[dep], c.ID)
		}
	}

	// Ready queue seeded and consumed in insertion order
	var ready []string
	for _, c := range s.calls {
		if indegree[c.ID] == 0 {
			ready = append(ready, c.ID)
		}
	}

	ordered := make([]*Call, 0, len(s.calls))
	done := make(map[string]bool, len(s.calls))
	for len(ready) > 0 {
		// Pick the ready node that was inserted earliest
		pick := 0
		for i := 1; i < len(ready); i++ {
			if s.index[ready[i]] < s.index[ready[pick]] {
				pick = i
			}
		}
		id := ready[pick]
		ready = append(ready[:pick], ready[pick+1:]...)

		call, _ := s.Get(id)
		ordered = append(ordered, call)
		done[id] = true

		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(ordered) < len(s.calls) {
		return nil, &CircularDependencyError{Cycle: s.findCycle(done)}
	}
	return ordered, nil
}

// findCycle walks the unresolved remainder of the graph depth-first and
// returns one concrete cycle for the error message.
func (s *Store) findCycle(done map[string]bool) []string {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		if visiting[id] {
			// Found it: slice the stack from the repeated node
			for i, v := range stack {
				if v == id {
					cycle = append(append(cycle, stack[i:]...), id)
					return true
				}
			}
			return true
		}
		if visited[id] {
			return false
		}
		visiting[id] = true
		stack = append(stack, id)

		call, err := s.Get(id)
		if err == nil {
			for _, dep := range call.DependsOn {
				if done[dep] {
					continue
				}
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		visiting[id] = false
		visited[id] = true
		return false
	}

	for _, c := range s.calls {
		if !done[c.ID] && !visited[c.ID] {
			if visit(c.ID) {
				return cycle
			}
		}
	}
	return nil
}
