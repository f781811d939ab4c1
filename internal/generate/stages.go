package generate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/docpipe/docpipe/internal/assemble"
)

// Section names, one per generation stage. These are also the assembled
// document's section markers and the bundle file mapping.
const (
	SectionArchitecture   = "architecture"
	SectionAPIReference   = "api_reference"
	SectionExamples       = "examples"
	SectionGettingStarted = "getting_started"
)

// Stage is one named unit of generation work. The set of stages is closed
// and dispatched by the orchestrator's fixed list, never discovered
// dynamically.
type Stage interface {
	Name() string
	// FactKeys lists the store keys this stage requires. All keys must be
	// written before the stage runs; the orchestrator's ordering guarantees
	// it, and facts projection fails the run if one is missing.
	FactKeys() []string
	Run(ctx context.Context, llm Completer, facts Facts) (assemble.Fragment, error)
}

// Stages returns the generation stages in their fixed execution order.
// api_reference must complete before examples, which reference its symbols;
// examples and getting_started are independent of each other and may run in
// parallel once their inputs exist.
func Stages() []Stage {
	return []Stage{
		&promptStage{
			name:  SectionArchitecture,
			order: 1,
			keys:  []string{"language", "file_tree", "dep_graph", "core_modules", "entry_points"},
			tmpl:  architectureTmpl,
		},
		&promptStage{
			name:  SectionAPIReference,
			order: 2,
			keys:  []string{"language", "api_symbols"},
			tmpl:  apiReferenceTmpl,
		},
		&promptStage{
			name:  SectionExamples,
			order: 3,
			keys:  []string{"language", "api_symbols", "entry_points"},
			tmpl:  examplesTmpl,
		},
		&promptStage{
			name:  SectionGettingStarted,
			order: 4,
			keys:  []string{"language", "packages", "entry_points"},
			tmpl:  gettingStartedTmpl,
		},
	}
}

// SectionOrder returns the predeclared assembly order of all sections.
func SectionOrder() []string {
	return []string{SectionArchitecture, SectionAPIReference, SectionExamples, SectionGettingStarted}
}

var architectureTmpl = template.Must(template.New(SectionArchitecture).Parse(
	`You are documenting a codebase. Write an architecture narrative in Markdown:
the major modules, how they depend on each other, and where execution starts.
Ground every claim in the facts below; do not invent modules.
{{if .Feedback}}
Reviewer feedback to address:
{{.Feedback}}
{{end}}
Facts:
{{.Facts}}

Write only the section body, no section markers.`))

var apiReferenceTmpl = template.Must(template.New(SectionAPIReference).Parse(
	`You are documenting a codebase. Write an API reference in Markdown for the
public symbols below: one entry per class and function, with parameters and
return types where known. Only document symbols present in the facts.
{{if .Feedback}}
Reviewer feedback to address:
{{.Feedback}}
{{end}}
Facts:
{{.Facts}}

Write only the section body, no section markers.`))

var examplesTmpl = template.Must(template.New(SectionExamples).Parse(
	`You are documenting a codebase. Write usage examples in Markdown showing
how the public API below is called, starting from the entry points. Use only
symbols present in the facts.
{{if .Feedback}}
Reviewer feedback to address:
{{.Feedback}}
{{end}}
Facts:
{{.Facts}}

Write only the section body, no section markers.`))

var gettingStartedTmpl = template.Must(template.New(SectionGettingStarted).Parse(
	`You are documenting a codebase. Write a getting-started guide in Markdown:
prerequisites, installing the declared dependencies with the project's build
tool, and running the entry point.
{{if .Feedback}}
Reviewer feedback to address:
{{.Feedback}}
{{end}}
Facts:
{{.Facts}}

Write only the section body, no section markers.`))

// promptStage renders a template over the projected facts and returns the
// trimmed completion as this stage's fragment.
type promptStage struct {
	name  string
	order int
	keys  []string
	tmpl  *template.Template
}

func (s *promptStage) Name() string { return s.name }

func (s *promptStage) FactKeys() []string { return s.keys }

func (s *promptStage) Run(ctx context.Context, llm Completer, facts Facts) (assemble.Fragment, error) {
	var feedback string
	if raw, ok := facts[FeedbackKey]; ok {
		feedback = string(raw)
	}

	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, struct {
		Facts    string
		Feedback string
	}{
		Facts:    facts.Render(),
		Feedback: feedback,
	})
	if err != nil {
		return assemble.Fragment{}, fmt.Errorf("stage %s: rendering prompt: %w", s.name, err)
	}

	response, err := llm.Complete(ctx, buf.String())
	if err != nil {
		return assemble.Fragment{}, fmt.Errorf("stage %s: %w", s.name, err)
	}

	return assemble.Fragment{
		SectionName: s.name,
		Body:        strings.TrimSpace(response),
		Order:       s.order,
	}, nil
}
