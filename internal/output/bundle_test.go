package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docpipe/docpipe/internal/gate"
	"github.com/docpipe/docpipe/internal/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()

	b := &Bundle{
		Sections: map[string]string{
			generate.SectionArchitecture:   "The system has two layers.",
			generate.SectionAPIReference:   "## Functions",
			generate.SectionGettingStarted: "Install with pip.",
		},
		Document: "===SECTION: architecture===\nThe system has two layers.\n",
		Diagram:  "graph TD\n    a --> b\n",
		Metadata: Metadata{
			RunID:       "run-1",
			GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Language:    "python",
			TotalFiles:  3,
			Evaluation:  gate.EvaluationResult{Score: 8.5, Passed: true},
		},
	}
	require.NoError(t, Write(dir, b))

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "Install with pip.\n", string(readme))

	// examples had no content: placeholder instead of a missing file
	examples, err := os.ReadFile(filepath.Join(dir, "EXAMPLES.md"))
	require.NoError(t, err)
	assert.Equal(t, Placeholder+"\n", string(examples))

	diagram, err := os.ReadFile(filepath.Join(dir, "diagrams", "architecture.mermaid"))
	require.NoError(t, err)
	assert.Contains(t, string(diagram), "graph TD")

	raw, err := os.ReadFile(filepath.Join(dir, "technical_documentation.md"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "===SECTION: architecture===")

	metaRaw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(metaRaw, &meta))
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, "python", meta.Language)
	assert.Equal(t, 8.5, meta.Evaluation.Score)
}

func TestWriteBundleOverwrites(t *testing.T) {
	dir := t.TempDir()
	b := &Bundle{Sections: map[string]string{generate.SectionArchitecture: "v1"}}
	require.NoError(t, Write(dir, b))

	b.Sections[generate.SectionArchitecture] = "v2"
	require.NoError(t, Write(dir, b))

	got, err := os.ReadFile(filepath.Join(dir, "ARCHITECTURE.md"))
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(got))
}

func TestCountEndpoints(t *testing.T) {
	doc := "The service exposes:\n\n" +
		"- GET /users lists users\n" +
		"- POST /users creates one\n" +
		"- `DELETE /users/{id}` removes one\n" +
		"No endpoint here: GETTING started.\n"
	assert.Equal(t, 3, CountEndpoints(doc))
	assert.Equal(t, 0, CountEndpoints("a plain library with no HTTP surface"))
}
