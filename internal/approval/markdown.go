package approval

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown styles Markdown for terminal display.
func renderMarkdown(md string, width int) (string, error) {
	if md == "" {
		return "", nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating glamour renderer: %w", err)
	}
	return r.Render(md)
}
