package export

import "strings"

// Kind distinguishes body paragraphs from headings.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
)

// MaxHeadingLevel is the deepest heading level any format supports.
const MaxHeadingLevel = 6

// Run is a span of text with uniform styling.
type Run struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Paragraph is one block of text. Level is 1..6 for headings and 0 otherwise.
type Paragraph struct {
	Kind  Kind  `json:"kind"`
	Level int   `json:"level,omitempty"`
	Runs  []Run `json:"runs"`
}

// Heading builds a heading paragraph, clamping level into 1..6.
func Heading(level int, runs ...Run) Paragraph {
	return Paragraph{Kind: KindHeading, Level: clampLevel(level), Runs: runs}
}

// Body builds a body paragraph.
func Body(runs ...Run) Paragraph {
	return Paragraph{Kind: KindParagraph, Runs: runs}
}

// Plain builds an unstyled run.
func Plain(text string) Run { return Run{Text: text} }

// Text concatenates the run text of the paragraph.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// IsHeading reports whether p is a heading.
func (p Paragraph) IsHeading() bool { return p.Kind == KindHeading }

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

// normalize merges adjacent runs that share a style and drops empty ones.
func normalize(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Bold == r.Bold && out[n-1].Italic == r.Italic {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}
