package gate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCompleter returns a canned response and records the prompt.
type mockCompleter struct {
	response string
	err      error
	prompt   string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestEvaluatorParsesScoreAndReasons(t *testing.T) {
	mock := &mockCompleter{response: "Score: 7.5\nReasons: good coverage; minor gaps in examples"}
	ev := NewEvaluator(mock)

	score, reasons, err := ev.Evaluate(context.Background(), "the doc", "the facts")
	require.NoError(t, err)
	assert.Equal(t, 7.5, score)
	assert.Equal(t, []string{"good coverage", "minor gaps in examples"}, reasons)

	assert.Contains(t, mock.prompt, "the doc")
	assert.Contains(t, mock.prompt, "the facts")
}

func TestEvaluatorClampsScore(t *testing.T) {
	tests := []struct {
		response string
		want     float64
	}{
		{"Score: 15", 10},
		{"Score: -3", 0},
		{"Score: 9/10", 9},
		{"Score: 0", 0},
	}
	for _, tc := range tests {
		ev := NewEvaluator(&mockCompleter{response: tc.response})
		score, _, err := ev.Evaluate(context.Background(), "d", "f")
		require.NoError(t, err, tc.response)
		assert.Equal(t, tc.want, score, tc.response)
	}
}

func TestEvaluatorMissingScoreIsError(t *testing.T) {
	ev := NewEvaluator(&mockCompleter{response: "This documentation looks fine to me."})
	_, _, err := ev.Evaluate(context.Background(), "d", "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing Score")
}

func TestEvaluatorUnparseableScoreIsError(t *testing.T) {
	ev := NewEvaluator(&mockCompleter{response: "Score: excellent"})
	_, _, err := ev.Evaluate(context.Background(), "d", "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable score")
}

func TestEvaluatorCompletionFailure(t *testing.T) {
	ev := NewEvaluator(&mockCompleter{err: fmt.Errorf("connection reset")})
	_, _, err := ev.Evaluate(context.Background(), "d", "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation completion")
}

func TestEvaluatorNoReasonsLine(t *testing.T) {
	ev := NewEvaluator(&mockCompleter{response: "Score: 8"})
	score, reasons, err := ev.Evaluate(context.Background(), "d", "f")
	require.NoError(t, err)
	assert.Equal(t, 8.0, score)
	assert.Empty(t, reasons)
}
