package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAttempt drives one full generate→assemble→evaluate→decide cycle.
func runAttempt(t *testing.T, g *Gate, score float64) EvaluationResult {
	t.Helper()
	require.NoError(t, g.BeginGeneration())
	require.NoError(t, g.MarkAssembled())
	require.NoError(t, g.BeginEvaluation())
	result, err := g.Decide(score, []string{"reason"})
	require.NoError(t, err)
	return result
}

func TestGateAcceptsFirstAttempt(t *testing.T) {
	g := New(6.0, 2)
	assert.Equal(t, StatePending, g.State())

	result := runAttempt(t, g, 8.0)
	assert.True(t, result.Passed)
	assert.Equal(t, StateAccepted, g.State())
	assert.Equal(t, 1, g.Attempt())
	assert.True(t, g.Terminal())
}

func TestGateExactlyMaxRetriesThenRejected(t *testing.T) {
	g := New(6.0, 2)

	// 1 initial + 2 retries = 3 generations, then terminal REJECTED.
	for i := 0; i < 3; i++ {
		result := runAttempt(t, g, 5.0)
		assert.False(t, result.Passed)
	}

	assert.Equal(t, StateRejected, g.State())
	assert.Equal(t, 3, g.Attempt())

	// No further generation is possible.
	assert.Error(t, g.BeginGeneration())
}

func TestGateAcceptsOnThirdAttempt(t *testing.T) {
	g := New(6.0, 2)

	runAttempt(t, g, 5.0)
	assert.Equal(t, StateRetrying, g.State())
	runAttempt(t, g, 5.0)
	assert.Equal(t, StateRetrying, g.State())

	result := runAttempt(t, g, 7.0)
	assert.True(t, result.Passed)
	assert.Equal(t, StateAccepted, g.State())
	assert.Equal(t, 3, g.Attempt())
}

func TestGateThresholdBoundary(t *testing.T) {
	g := New(6.0, 0)
	result := runAttempt(t, g, 6.0)
	assert.True(t, result.Passed, "score equal to threshold passes")
}

func TestGateZeroRetriesRejectsImmediately(t *testing.T) {
	g := New(6.0, 0)
	runAttempt(t, g, 5.9)
	assert.Equal(t, StateRejected, g.State())
	assert.Equal(t, 1, g.Attempt())
}

func TestGateFailAttemptConsumesRetryBudget(t *testing.T) {
	g := New(6.0, 1)

	// Timeout during generation burns the same budget as a low score.
	require.NoError(t, g.BeginGeneration())
	require.NoError(t, g.FailAttempt())
	assert.Equal(t, StateRetrying, g.State())

	require.NoError(t, g.BeginGeneration())
	require.NoError(t, g.FailAttempt())
	assert.Equal(t, StateRejected, g.State())
}

func TestGateInvalidTransitions(t *testing.T) {
	g := New(6.0, 2)

	assert.Error(t, g.MarkAssembled())
	assert.Error(t, g.BeginEvaluation())
	_, err := g.Decide(5.0, nil)
	assert.Error(t, err)

	require.NoError(t, g.BeginGeneration())
	assert.Error(t, g.BeginGeneration(), "double generation without a retry decision")
}

func TestGateStateProgression(t *testing.T) {
	g := New(6.0, 2)
	require.NoError(t, g.BeginGeneration())
	assert.Equal(t, StateGenerating, g.State())
	require.NoError(t, g.MarkAssembled())
	assert.Equal(t, StateAssembled, g.State())
	require.NoError(t, g.BeginEvaluation())
	assert.Equal(t, StateEvaluating, g.State())
}
