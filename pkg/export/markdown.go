package export

import (
	"regexp"
	"strings"
)

var headingLine = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)[ \t]*$`)

// ParseMarkdown reads the Markdown subset used for document text: ATX headings
// (# to ######) and **bold**, *italic* and ***bold italic*** spans. Every
// non-blank line is one paragraph. Backslash escapes \*, \# and \\.
// Unmatched emphasis markers are kept as literal text.
func ParseMarkdown(text string) []Paragraph {
	var out []Paragraph
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := headingLine.FindStringSubmatch(line); m != nil {
			out = append(out, Heading(len(m[1]), parseInline(m[2])...))
			continue
		}
		out = append(out, Body(parseInline(line)...))
	}
	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func parseInline(s string) []Run {
	var (
		runs         []Run
		buf          strings.Builder
		bold, italic bool
	)
	flush := func() {
		if buf.Len() > 0 {
			runs = append(runs, Run{Text: buf.String(), Bold: bold, Italic: italic})
			buf.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && strings.IndexByte(`*#\`, s[i+1]) >= 0 {
			buf.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c != '*' {
			buf.WriteByte(c)
			i++
			continue
		}

		n := 0
		for i+n < len(s) && s[i+n] == '*' {
			n++
		}
		if n > 3 {
			buf.WriteString(s[i : i+n])
			i += n
			continue
		}
		if n == 3 && bold != italic {
			// Mixed state: handle as ** followed by *.
			n = 2
		}

		opening := (n == 1 && !italic) || (n >= 2 && !bold)
		if opening && !hasCloser(s[i+n:], n) {
			buf.WriteString(s[i : i+n])
			i += n
			continue
		}

		flush()
		switch n {
		case 1:
			italic = !italic
		case 2:
			bold = !bold
		case 3:
			bold, italic = !bold, !italic
		}
		i += n
	}
	flush()
	return normalize(runs)
}

// hasCloser reports whether rest contains an unescaped run of at least n stars.
func hasCloser(rest string, n int) bool {
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '*':
			j := i
			for j < len(rest) && rest[j] == '*' {
				j++
			}
			if j-i >= n {
				return true
			}
			i = j - 1
		}
	}
	return false
}

// ToMarkdown renders paragraphs so that ParseMarkdown returns them again.
// Paragraphs are separated by a blank line.
func ToMarkdown(paras []Paragraph) string {
	blocks := make([]string, 0, len(paras))
	for _, p := range paras {
		var b strings.Builder
		if p.IsHeading() {
			b.WriteString(strings.Repeat("#", clampLevel(p.Level)))
			b.WriteByte(' ')
		}
		for i, r := range normalize(p.Runs) {
			text := escapeMarkdown(r.Text)
			if i == 0 && !p.IsHeading() && strings.HasPrefix(text, "#") {
				text = `\` + text
			}
			mark := emphasis(r)
			b.WriteString(mark)
			b.WriteString(text)
			b.WriteString(mark)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, "\n", " ")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

func emphasis(r Run) string {
	switch {
	case r.Bold && r.Italic:
		return "***"
	case r.Bold:
		return "**"
	case r.Italic:
		return "*"
	}
	return ""
}
