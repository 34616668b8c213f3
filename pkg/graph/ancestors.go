package graph

import "github.com/dukex/automations/pkg/models"

// StepPredicate selects steps during a traversal.
type StepPredicate func(models.Step) bool

// TriggerWithEvent matches trigger steps configured for event.
func TriggerWithEvent(event models.TriggerEvent) StepPredicate {
	return func(s models.Step) bool {
		return s.IsTriggerFor(event)
	}
}

// KindIs matches steps of the given kind.
func KindIs(kind models.StepKind) StepPredicate {
	return func(s models.Step) bool {
		return s.Kind == kind
	}
}

// IsReachableBackward reports whether some step upstream of startStepID, following
// incoming connections transitively, satisfies predicate. The start step itself is
// not tested. Each step is visited at most once, so cycles terminate.
func IsReachableBackward(g Graph, startStepID string, predicate StepPredicate) bool {
	found := false

	walkBackward(g, startStepID, make(map[string]struct{}), func(step models.Step) bool {
		found = predicate(step)

		return !found
	})

	return found
}

// IsReachableForward reports whether some step downstream of startStepID, following
// outgoing connections transitively, satisfies predicate. The start step itself is
// not tested.
func IsReachableForward(g Graph, startStepID string, predicate StepPredicate) bool {
	found := false

	walkForward(g, startStepID, make(map[string]struct{}), func(step models.Step) bool {
		found = predicate(step)

		return !found
	})

	return found
}

// Ancestors returns every step upstream of stepID in depth-first discovery order.
func Ancestors(g Graph, stepID string) []models.Step {
	var ancestors []models.Step

	walkBackward(g, stepID, make(map[string]struct{}), func(step models.Step) bool {
		ancestors = append(ancestors, step)

		return true
	})

	return ancestors
}

// walkBackward visits the ancestors of startID depth first, calling visit once per
// step until it returns false. visited is owned by the caller; startID is marked in it
// so a cycle back to the start is not reported as an ancestor.
func walkBackward(g Graph, startID string, visited map[string]struct{}, visit func(models.Step) bool) {
	incoming := make(map[string][]string, len(g.Steps))
	for _, conn := range g.Connections {
		incoming[conn.TargetStepID] = append(incoming[conn.TargetStepID], conn.SourceStepID)
	}

	walk(g, startID, incoming, visited, visit)
}

func walkForward(g Graph, startID string, visited map[string]struct{}, visit func(models.Step) bool) {
	outgoing := make(map[string][]string, len(g.Steps))
	for _, conn := range g.Connections {
		outgoing[conn.SourceStepID] = append(outgoing[conn.SourceStepID], conn.TargetStepID)
	}

	walk(g, startID, outgoing, visited, visit)
}

func walk(g Graph, startID string, edges map[string][]string, visited map[string]struct{}, visit func(models.Step) bool) {
	visited[startID] = struct{}{}
	stack := []string{startID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, nextID := range edges[current] {
			if _, seen := visited[nextID]; seen {
				continue
			}

			visited[nextID] = struct{}{}

			step, ok := g.Step(nextID)
			if !ok {
				continue
			}

			if !visit(step) {
				return
			}

			stack = append(stack, nextID)
		}
	}
}
