// Package depgraph implements the dependency resolver (§4.C10): ready-set
// computation, cycle detection, and topological leveling over a plan's
// subtask dependency graph.
package depgraph

import (
	"fmt"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// GetReadySubtasks returns every pending subtask whose entire dependency
// set points to done subtasks.
func GetReadySubtasks(p *models.Plan) []models.Subtask {
	var ready []models.Subtask
	for _, st := range p.Subtasks {
		if st.Status != models.SubtaskPending {
			continue
		}
		if allDepsDone(p, st) {
			ready = append(ready, st)
		}
	}
	return ready
}

func allDepsDone(p *models.Plan, st models.Subtask) bool {
	for dep := range st.Dependencies {
		d := p.SubtaskByID(dep)
		if d == nil || d.Status != models.SubtaskDone {
			return false
		}
	}
	return true
}

// colour marks a node's DFS visitation state for cycle detection.
type colour int

const (
	white colour = iota
	grey
	black
)

// HasCycles runs a two-colour DFS over the dependency graph.
func HasCycles(p *models.Plan) bool {
	colours := make(map[string]colour, len(p.Subtasks))
	for _, st := range p.Subtasks {
		colours[st.ID] = white
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		colours[id] = grey
		st := p.SubtaskByID(id)
		if st != nil {
			for dep := range st.Dependencies {
				switch colours[dep] {
				case grey:
					return true
				case white:
					if visit(dep) {
						return true
					}
				}
			}
		}
		colours[id] = black
		return false
	}

	for _, st := range p.Subtasks {
		if colours[st.ID] == white {
			if visit(st.ID) {
				return true
			}
		}
	}
	return false
}

// GetExecutionOrder returns levels of subtasks where level k contains
// exactly the subtasks whose every dependency is satisfied by levels
// 0..k-1. Raises an error if the graph has a cycle or deadlocks (a
// non-empty remainder with no level progress).
func GetExecutionOrder(p *models.Plan) ([][]models.Subtask, error) {
	if HasCycles(p) {
		return nil, fmt.Errorf("dependency graph has a cycle")
	}

	done := make(map[string]bool, len(p.Subtasks))
	remaining := make([]models.Subtask, len(p.Subtasks))
	copy(remaining, p.Subtasks)

	var levels [][]models.Subtask
	for len(remaining) > 0 {
		var level []models.Subtask
		var next []models.Subtask
		for _, st := range remaining {
			ready := true
			for dep := range st.Dependencies {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, st)
			} else {
				next = append(next, st)
			}
		}
		if len(level) == 0 {
			return nil, fmt.Errorf("dependency graph deadlocked: %d subtasks unresolved", len(remaining))
		}
		for _, st := range level {
			done[st.ID] = true
		}
		levels = append(levels, level)
		remaining = next
	}

	return levels, nil
}

// ValidateDependencies returns human-readable error strings covering
// cycles, missing dependency ids, and self-dependencies.
func ValidateDependencies(p *models.Plan) []string {
	var errs []string

	ids := make(map[string]bool, len(p.Subtasks))
	for _, st := range p.Subtasks {
		ids[st.ID] = true
	}

	for _, st := range p.Subtasks {
		for dep := range st.Dependencies {
			if dep == st.ID {
				errs = append(errs, fmt.Sprintf("subtask %s depends on itself", st.ID))
				continue
			}
			if !ids[dep] {
				errs = append(errs, fmt.Sprintf("subtask %s depends on unknown subtask %s", st.ID, dep))
			}
		}
	}

	if HasCycles(p) {
		errs = append(errs, "dependency graph contains a cycle")
	}

	return errs
}

// GetDependents returns every subtask whose dependency set contains
// subtaskID, used for failure propagation.
func GetDependents(p *models.Plan, subtaskID string) []models.Subtask {
	var dependents []models.Subtask
	for _, st := range p.Subtasks {
		if st.Dependencies[subtaskID] {
			dependents = append(dependents, st)
		}
	}
	return dependents
}

// GetTransitiveDependents returns every subtask transitively depending on
// subtaskID, used to fail an entire downstream chain (§8 scenario 3).
func GetTransitiveDependents(p *models.Plan, subtaskID string) []models.Subtask {
	visited := make(map[string]bool)
	var out []models.Subtask

	var walk func(id string)
	walk = func(id string) {
		for _, st := range GetDependents(p, id) {
			if visited[st.ID] {
				continue
			}
			visited[st.ID] = true
			out = append(out, st)
			walk(st.ID)
		}
	}
	walk(subtaskID)
	return out
}
