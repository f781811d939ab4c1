package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docpipe/docpipe/internal/depgraph"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/generate"
	"github.com/docpipe/docpipe/internal/manifest"
	"github.com/docpipe/docpipe/internal/store"
)

const (
	maxExcerptFiles = 5
	maxExcerptBytes = 2048
)

// populateFacts writes every fact key the generation stages read. Private
// symbols are filtered here, before anything reaches the store, so no stage
// can see them.
func populateFacts(rs *store.RunStore, root string, cs *extract.CodeStructure, graph *depgraph.Graph, man *manifest.Manifest) error {
	rs.SetStage("facts")

	paths := make([]string, 0, len(cs.Files))
	for _, f := range cs.Files {
		paths = append(paths, f.Path)
	}

	facts := []struct {
		key   string
		value any
	}{
		{"language", cs.Language},
		{"language_stats", cs.LanguageStats},
		{"file_tree", paths},
		{"structure", cs},
		{"api_symbols", cs.PublicSymbols()},
		{"dep_graph", graph.Edges},
		{"core_modules", graph.CoreModules},
		{"entry_points", cs.EntryPoints},
		{"packages", man},
		{"source_excerpts", sourceExcerpts(root, cs)},
	}
	for _, f := range facts {
		if err := rs.Set(f.key, f.value); err != nil {
			return fmt.Errorf("setting fact %q: %w", f.key, err)
		}
	}

	if len(cs.Files) == 0 {
		if err := rs.Set(generate.SourceNoteKey, NoSourceNote); err != nil {
			return fmt.Errorf("setting fact %q: %w", generate.SourceNoteKey, err)
		}
	}
	return nil
}

// sourceExcerpts reads the head of the most informative files: entry points
// first, then the walk's leading files up to the cap.
func sourceExcerpts(root string, cs *extract.CodeStructure) map[string]string {
	var candidates []string
	seen := make(map[string]bool)
	for _, ep := range cs.EntryPoints {
		if !seen[ep.File] {
			candidates = append(candidates, ep.File)
			seen[ep.File] = true
		}
	}
	for _, f := range cs.Files {
		if len(candidates) >= maxExcerptFiles {
			break
		}
		if !seen[f.Path] {
			candidates = append(candidates, f.Path)
			seen[f.Path] = true
		}
	}
	if len(candidates) > maxExcerptFiles {
		candidates = candidates[:maxExcerptFiles]
	}

	excerpts := make(map[string]string, len(candidates))
	for _, rel := range candidates {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		if len(data) > maxExcerptBytes {
			data = data[:maxExcerptBytes]
		}
		excerpts[rel] = string(data)
	}
	return excerpts
}

// evaluationFacts renders the fact subset the evaluator scores against.
// A projection failure is the caller's to handle: scoring against empty
// facts would let a fabricated document pass.
func evaluationFacts(rs *store.RunStore) (string, error) {
	facts, err := generate.ProjectFacts(rs, "evaluate",
		[]string{"language", "api_symbols", "core_modules", "entry_points"})
	if err != nil {
		return "", err
	}
	return facts.Render(), nil
}
