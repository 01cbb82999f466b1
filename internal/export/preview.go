package export

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Preview renders a markdown report for the terminal. If the renderer
// fails the markdown is returned as is.
func Preview(markdown string, width int) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}
