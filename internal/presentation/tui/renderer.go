package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteMarkdown styles markdown with glamour when w is a terminal and writes
// it unchanged otherwise, so piped output stays plain.
func WriteMarkdown(w io.Writer, markdown string) error {
	out := markdown
	if IsTerminal(w) {
		rendered, err := NewRenderer()(markdown)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		out = rendered
	}
	_, err := io.WriteString(w, out)
	return err
}
