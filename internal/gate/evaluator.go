package gate

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Completer abstracts LLM completion for testability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var evalTmpl = template.Must(template.New("evaluate").Parse(
	`You are evaluating generated technical documentation against facts
extracted from the source tree it describes.

Score the documentation from 0 to 10 as the average of three dimensions:
- Faithfulness: claims are supported by the extracted facts, nothing invented.
- Relevancy: content addresses the codebase at hand, not generic filler.
- Completeness: the major modules, APIs, and usage paths are covered.

Extracted facts:
{{.Facts}}

Documentation:
{{.Document}}

Respond in exactly this format:
Score: <number from 0 to 10>
Reasons: <semicolon-separated list of the main score drivers>`))

// Evaluator scores an assembled document against source facts through the
// external collaborator.
type Evaluator struct {
	llm Completer
}

// NewEvaluator creates an LLM-backed evaluator.
func NewEvaluator(llm Completer) *Evaluator {
	return &Evaluator{llm: llm}
}

// Evaluate asks the collaborator to score the document. The score is clamped
// to [0, 10]. An unparseable response is an error the caller treats as a
// retryable stage failure, never a silent zero.
func (e *Evaluator) Evaluate(ctx context.Context, document, facts string) (float64, []string, error) {
	var buf bytes.Buffer
	err := evalTmpl.Execute(&buf, struct {
		Facts    string
		Document string
	}{
		Facts:    facts,
		Document: document,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("rendering evaluation prompt: %w", err)
	}

	response, err := e.llm.Complete(ctx, buf.String())
	if err != nil {
		return 0, nil, fmt.Errorf("evaluation completion: %w", err)
	}

	return parseEvaluation(response)
}

// parseEvaluation extracts the Score and Reasons lines from the response.
func parseEvaluation(response string) (float64, []string, error) {
	var (
		score   float64
		found   bool
		reasons []string
	)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Score:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Score:"))
			raw = strings.TrimSuffix(raw, "/10")
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("unparseable score %q", raw)
			}
			score = clamp(parsed, 0, 10)
			found = true
		case strings.HasPrefix(line, "Reasons:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Reasons:"))
			for _, r := range strings.Split(raw, ";") {
				if r = strings.TrimSpace(r); r != "" {
					reasons = append(reasons, r)
				}
			}
		}
	}

	if !found {
		return 0, nil, fmt.Errorf("evaluation response missing Score line")
	}
	return score, reasons, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
