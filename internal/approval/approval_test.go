package approval

import (
	"context"
	"testing"

	"github.com/docpipe/docpipe/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoApprover(t *testing.T) {
	approved, feedback, err := AutoApprover{}.Review(context.Background(), "doc", gate.EvaluationResult{})
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Empty(t, feedback)
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(gate.EvaluationResult{
		Score:   6.5,
		Passed:  false,
		Reasons: []string{"examples section is thin"},
	}, 80)
	assert.Contains(t, out, "below threshold")
	assert.Contains(t, out, "6.5/10")
	assert.Contains(t, out, "examples section is thin")

	out = renderSummary(gate.EvaluationResult{Score: 8.0, Passed: true}, 80)
	assert.Contains(t, out, "passed")
}

func TestRenderPreviewFallsBackOnEmpty(t *testing.T) {
	out := renderPreview("", 80)
	assert.Empty(t, out)
}
