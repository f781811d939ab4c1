// Package approval implements the human review step that runs after the
// quality gate: show the document, ask Approve or Edit, and collect feedback
// for a regeneration pass when the reviewer wants changes.
package approval

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/docpipe/docpipe/internal/gate"
)

// Interactive reports whether stdout is a terminal a reviewer can respond
// on. Headless runs auto-approve.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// AutoApprover approves every document without looking at it.
type AutoApprover struct{}

func (AutoApprover) Review(context.Context, string, gate.EvaluationResult) (bool, string, error) {
	return true, "", nil
}

// TerminalReviewer renders the document on the terminal and prompts for a
// decision.
type TerminalReviewer struct{}

// Review shows the evaluation summary and a preview, then asks the reviewer
// to approve or request changes. Returns approved=false with non-empty
// feedback when an edit pass is wanted.
func (r *TerminalReviewer) Review(ctx context.Context, doc string, eval gate.EvaluationResult) (bool, string, error) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	fmt.Println(renderSummary(eval, width))
	fmt.Println(renderPreview(doc, width))

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Accept this documentation?").
			Options(
				huh.NewOption("Approve and save", "approve"),
				huh.NewOption("Edit (regenerate with feedback)", "edit"),
			).
			Value(&choice),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return false, "", fmt.Errorf("review prompt: %w", err)
	}
	if choice == "approve" {
		return true, "", nil
	}

	var feedback string
	edit := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("What should change?").
			Placeholder("e.g. the architecture section skips the worker pool").
			Value(&feedback),
	))
	if err := edit.RunWithContext(ctx); err != nil {
		return false, "", fmt.Errorf("feedback prompt: %w", err)
	}
	if strings.TrimSpace(feedback) == "" {
		return true, "", nil
	}
	return false, feedback, nil
}

// renderSummary boxes the gate outcome for the reviewer.
func renderSummary(eval gate.EvaluationResult, width int) string {
	boxWidth := width - 4
	if boxWidth < 20 {
		boxWidth = 20
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}).
		Width(boxWidth).
		Padding(0, 1)

	verdict := "below threshold"
	if eval.Passed {
		verdict = "passed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Quality gate: %s (score %.1f/10)", verdict, eval.Score)
	for _, reason := range eval.Reasons {
		b.WriteString("\n- ")
		b.WriteString(reason)
	}
	return box.Render(b.String())
}

// renderPreview renders the document through glamour, falling back to the
// raw Markdown when the renderer is unavailable.
func renderPreview(doc string, width int) string {
	rendered, err := renderMarkdown(doc, width)
	if err != nil {
		return doc
	}
	return rendered
}
