// Package output writes the generated documentation bundle to disk: one
// Markdown file per section, the raw assembled document, a mermaid diagram,
// and run metadata.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docpipe/docpipe/internal/gate"
	"github.com/docpipe/docpipe/internal/generate"
)

// Placeholder fills a section file when the assembler produced no content
// for it. The bundle always contains the full file set.
const Placeholder = "Documentation was not generated for this section."

// sectionFiles maps each section to its file in the bundle.
var sectionFiles = map[string]string{
	generate.SectionGettingStarted: "README.md",
	generate.SectionArchitecture:   "ARCHITECTURE.md",
	generate.SectionAPIReference:   "API_REFERENCE.md",
	generate.SectionExamples:       "EXAMPLES.md",
}

// Metadata describes one completed run, serialized to metadata.json.
type Metadata struct {
	RunID          string                `json:"runId"`
	GeneratedAt    time.Time             `json:"generatedAt"`
	Language       string                `json:"language"`
	TotalFiles     int                   `json:"totalFiles"`
	TotalEndpoints int                   `json:"totalEndpoints"`
	Evaluation     gate.EvaluationResult `json:"evaluation"`
	Note           string                `json:"note,omitempty"`
}

// Bundle is everything one run hands to the writer.
type Bundle struct {
	Sections map[string]string
	Document string
	Diagram  string
	Metadata Metadata
}

// Write lays the bundle out under dir. Existing files are overwritten;
// missing sections get the placeholder so downstream consumers always find
// the expected file set.
func Write(dir string, b *Bundle) error {
	if err := os.MkdirAll(filepath.Join(dir, "diagrams"), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for section, filename := range sectionFiles {
		body, ok := b.Sections[section]
		if !ok || body == "" {
			body = Placeholder
		}
		if err := writeFile(filepath.Join(dir, filename), body); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(dir, "technical_documentation.md"), b.Document); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "diagrams", "architecture.mermaid"), b.Diagram); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(b.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return writeFile(filepath.Join(dir, "metadata.json"), string(meta))
}

func writeFile(path, body string) error {
	if body != "" && body[len(body)-1] != '\n' {
		body += "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
