package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionOrderRespectsDependencies(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(call("base")))
	require.NoError(t, s.Add(call("middle", "base")))
	require.NoError(t, s.Add(call("top", "middle")))

	ordered, err := s.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "middle", "top"}, ids(ordered))
}

func TestExecutionOrderBreaksTiesByInsertion(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(call("z")))
	require.NoError(t, s.Add(call("a")))
	require.NoError(t, s.Add(call("m")))

	ordered, err := s.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, ids(ordered),
		"independent calls run in insertion order, not name order")
}

func TestExecutionOrderDiamond(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(call("root")))
	require.NoError(t, s.Add(call("left", "root")))
	require.NoError(t, s.Add(call("right", "root")))
	require.NoError(t, s.Add(call("join", "left", "right")))

	ordered, err := s.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "left", "right", "join"}, ids(ordered))
}

func TestExecutionOrderReportsConcreteCycle(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(call("a")))
	require.NoError(t, s.Add(call("b", "a")))
	require.NoError(t, s.Add(call("c", "b")))

	// Close the loop through Update; Add alone cannot create cycles because
	// dependencies must already exist.
	err := s.Update("a", Patch{DependsOn: []string{"c"}})
	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	require.NotEmpty(t, cycle.Cycle)

	first, last := cycle.Cycle[0], cycle.Cycle[len(cycle.Cycle)-1]
	assert.Equal(t, first, last, "reported cycle closes on itself")
	assert.Contains(t, err.Error(), " -> ")
}

func TestExecutionOrderEmptyStore(t *testing.T) {
	s := NewStore()
	ordered, err := s.ExecutionOrder()
	require.NoError(t, err)
	assert.Empty(t, ordered)
}
