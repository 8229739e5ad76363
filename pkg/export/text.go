package export

import (
	"io"
	"strings"
)

// WriteText writes paragraphs as plain text separated by blank lines.
// Styling and heading levels are dropped.
func WriteText(w io.Writer, paras []Paragraph) error {
	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = p.Text()
	}
	_, err := io.WriteString(w, strings.Join(texts, "\n\n")+"\n")
	return err
}

// ParseText turns every non-blank line into an unstyled body paragraph.
func ParseText(text string) []Paragraph {
	var out []Paragraph
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Body(Plain(line)))
	}
	return out
}
