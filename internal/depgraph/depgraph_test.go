package depgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentcore/pkg/models"
)

func planWithSubtasks(pairs ...[2]string) *models.Plan {
	// pairs[i] = {id, dep} where dep may be "" for none.
	byID := make(map[string]*models.Subtask)
	var order []string
	for _, pr := range pairs {
		if _, ok := byID[pr[0]]; !ok {
			byID[pr[0]] = &models.Subtask{ID: pr[0], Status: models.SubtaskPending, Dependencies: map[string]bool{}}
			order = append(order, pr[0])
		}
		if pr[1] != "" {
			byID[pr[0]].Dependencies[pr[1]] = true
		}
	}
	p := &models.Plan{}
	for _, id := range order {
		p.Subtasks = append(p.Subtasks, *byID[id])
	}
	return p
}

func TestHasCyclesDetectsCycle(t *testing.T) {
	p := planWithSubtasks([2]string{"a", "b"}, [2]string{"b", "a"})
	require.True(t, HasCycles(p))
}

func TestHasCyclesAcyclic(t *testing.T) {
	p := planWithSubtasks([2]string{"a", ""}, [2]string{"b", "a"}, [2]string{"c", "b"})
	require.False(t, HasCycles(p))
}

func TestGetReadySubtasks(t *testing.T) {
	p := planWithSubtasks([2]string{"a", ""}, [2]string{"b", "a"})
	ready := GetReadySubtasks(p)
	require.Len(t, ready, 1)
	require.Equal(t, "a", ready[0].ID)

	p.SubtaskByID("a").Status = models.SubtaskDone
	ready = GetReadySubtasks(p)
	require.Len(t, ready, 1)
	require.Equal(t, "b", ready[0].ID)
}

func TestGetExecutionOrderTopologicalLevels(t *testing.T) {
	p := planWithSubtasks([2]string{"s1", ""}, [2]string{"s2", "s1"}, [2]string{"s3", "s2"})
	levels, err := GetExecutionOrder(p)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	require.Equal(t, "s1", levels[0][0].ID)
	require.Equal(t, "s2", levels[1][0].ID)
	require.Equal(t, "s3", levels[2][0].ID)

	seen := map[string]int{}
	for levelIdx, level := range levels {
		for _, st := range level {
			seen[st.ID] = levelIdx
		}
	}
	for _, st := range p.Subtasks {
		for dep := range st.Dependencies {
			require.Less(t, seen[dep], seen[st.ID], "dependency must be in an earlier level")
		}
	}
}

func TestGetExecutionOrderErrorsOnCycle(t *testing.T) {
	p := planWithSubtasks([2]string{"a", "b"}, [2]string{"b", "a"})
	_, err := GetExecutionOrder(p)
	require.Error(t, err)
}

func TestValidateDependenciesReportsIssues(t *testing.T) {
	p := planWithSubtasks([2]string{"a", "a"}, [2]string{"b", "missing"})
	errs := ValidateDependencies(p)
	require.NotEmpty(t, errs)
}

func TestGetDependentsAndTransitive(t *testing.T) {
	p := planWithSubtasks([2]string{"s1", ""}, [2]string{"s2", "s1"}, [2]string{"s3", "s2"})
	direct := GetDependents(p, "s1")
	require.Len(t, direct, 1)
	require.Equal(t, "s2", direct[0].ID)

	transitive := GetTransitiveDependents(p, "s1")
	ids := []string{transitive[0].ID}
	for _, st := range transitive[1:] {
		ids = append(ids, st.ID)
	}
	require.ElementsMatch(t, []string{"s2", "s3"}, ids)
}
