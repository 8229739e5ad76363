package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/aretw0/questscribe/pkg/domain"
	"golang.org/x/text/encoding/charmap"
)

// headingSizes holds the \fs value (half points) per heading level.
var headingSizes = [MaxHeadingLevel + 1]int{24, 32, 28, 26, 24, 22, 20}

// WriteRTF writes paragraphs as an RTF 1.x document. Headings carry
// \outlinelevel so word processors list them in the navigation pane.
func WriteRTF(w io.Writer, paras []Paragraph) error {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\ansicpg1252\deff0{\fonttbl{\f0 Times New Roman;}}` + "\n")
	for _, p := range paras {
		b.WriteString(`{\pard`)
		if p.IsHeading() {
			level := clampLevel(p.Level)
			fmt.Fprintf(&b, `\outlinelevel%d\fs%d`, level-1, headingSizes[level])
		} else {
			fmt.Fprintf(&b, `\fs%d`, headingSizes[0])
		}
		b.WriteByte(' ')
		for _, r := range normalize(p.Runs) {
			switch {
			case r.Bold && r.Italic:
				b.WriteString(`{\b\i `)
			case r.Bold:
				b.WriteString(`{\b `)
			case r.Italic:
				b.WriteString(`{\i `)
			default:
				b.WriteString(`{`)
			}
			writeRTFText(&b, r.Text)
			b.WriteByte('}')
		}
		b.WriteString("\\par}\n")
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRTFText(b *strings.Builder, s string) {
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r == '\t':
			b.WriteString(`\tab `)
		case r < 0x80:
			b.WriteRune(r)
		default:
			for _, u := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(b, `\u%d?`, int16(u))
			}
		}
	}
}

// skippedDestinations are groups whose content is never document text.
var skippedDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "footer": true, "headerl": true, "headerr": true,
	"footerl": true, "footerr": true, "footnote": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "generator": true, "object": true,
}

type rtfState struct {
	bold, italic bool
	skip         bool
	ucSkip       int
}

type rtfReader struct {
	src   string
	pos   int
	stack []rtfState
	st    rtfState

	level   int // outline level + 1 of the current paragraph, 0 for body
	runs    []Run
	buf     strings.Builder
	out     []Paragraph
	pending []uint16 // high surrogate awaiting its pair
}

// ParseRTF extracts paragraphs from RTF text, keeping bold, italic and
// \outlinelevel headings. Unknown control words are ignored.
func ParseRTF(src string) ([]Paragraph, error) {
	if !strings.HasPrefix(strings.TrimSpace(src), `{\rtf`) {
		return nil, fmt.Errorf("%w: missing {\\rtf header", domain.ErrInvalidFormat)
	}
	r := &rtfReader{src: src, st: rtfState{ucSkip: 1}}
	if err := r.run(); err != nil {
		return nil, err
	}
	r.endParagraph()
	return r.out, nil
}

func (r *rtfReader) run() error {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch c {
		case '{':
			r.flushRun()
			r.stack = append(r.stack, r.st)
			r.pos++
		case '}':
			if len(r.stack) == 0 {
				return fmt.Errorf("%w: unbalanced '}' at offset %d", domain.ErrInvalidFormat, r.pos)
			}
			r.flushRun()
			r.st = r.stack[len(r.stack)-1]
			r.stack = r.stack[:len(r.stack)-1]
			r.pos++
		case '\\':
			r.control()
		case '\r', '\n':
			r.pos++
		default:
			r.text(string(c))
			r.pos++
		}
	}
	if len(r.stack) != 0 {
		return fmt.Errorf("%w: %d unclosed groups", domain.ErrInvalidFormat, len(r.stack))
	}
	return nil
}

func (r *rtfReader) control() {
	r.pos++ // backslash
	if r.pos >= len(r.src) {
		return
	}
	c := r.src[r.pos]
	if !isASCIILetter(c) {
		r.pos++
		switch c {
		case '\\', '{', '}':
			r.text(string(c))
		case '~':
			r.text("\u00a0")
		case '\'':
			if r.pos+2 <= len(r.src) {
				if v, err := strconv.ParseUint(r.src[r.pos:r.pos+2], 16, 8); err == nil {
					r.text(string(charmap.Windows1252.DecodeByte(byte(v))))
				}
				r.pos += 2
			}
		case '*':
			r.st.skip = true
		case '\n', '\r':
			r.paragraphBreak()
		}
		return
	}

	start := r.pos
	for r.pos < len(r.src) && isASCIILetter(r.src[r.pos]) {
		r.pos++
	}
	word := r.src[start:r.pos]

	numStart := r.pos
	if r.pos < len(r.src) && r.src[r.pos] == '-' {
		r.pos++
	}
	for r.pos < len(r.src) && r.src[r.pos] >= '0' && r.src[r.pos] <= '9' {
		r.pos++
	}
	param, hasParam := 0, r.pos > numStart
	if hasParam {
		param, _ = strconv.Atoi(r.src[numStart:r.pos])
	}
	if r.pos < len(r.src) && r.src[r.pos] == ' ' {
		r.pos++
	}

	r.word(word, param, hasParam)
}

func (r *rtfReader) word(word string, param int, hasParam bool) {
	if skippedDestinations[word] {
		r.st.skip = true
		return
	}
	switch word {
	case "b":
		r.flushRun()
		r.st.bold = !hasParam || param != 0
	case "i":
		r.flushRun()
		r.st.italic = !hasParam || param != 0
	case "plain":
		r.flushRun()
		r.st.bold, r.st.italic = false, false
	case "pard":
		r.flushRun()
		r.level = 0
	case "outlinelevel":
		if param >= 0 && param < MaxHeadingLevel {
			r.level = param + 1
		}
	case "par":
		r.paragraphBreak()
	case "line":
		r.text("\n")
	case "tab":
		r.text("\t")
	case "uc":
		r.st.ucSkip = param
	case "u":
		r.unicode(param)
	}
}

func (r *rtfReader) unicode(param int) {
	u := uint16(int16(param))
	switch {
	case utf16.IsSurrogate(rune(u)) && len(r.pending) == 0:
		r.pending = append(r.pending, u)
	case len(r.pending) > 0:
		r.text(string(utf16.Decode(append(r.pending, u))))
		r.pending = r.pending[:0]
	default:
		r.text(string(rune(u)))
	}
	// Skip the ANSI fallback characters.
	for n := 0; n < r.st.ucSkip && r.pos < len(r.src); n++ {
		switch {
		case strings.HasPrefix(r.src[r.pos:], `\'`):
			r.pos += 4
		case r.src[r.pos] == '\\' || r.src[r.pos] == '{' || r.src[r.pos] == '}':
			return
		default:
			r.pos++
		}
	}
}

func (r *rtfReader) text(s string) {
	if r.st.skip {
		return
	}
	r.buf.WriteString(s)
}

func (r *rtfReader) flushRun() {
	if r.buf.Len() == 0 {
		return
	}
	r.runs = append(r.runs, Run{Text: r.buf.String(), Bold: r.st.bold, Italic: r.st.italic})
	r.buf.Reset()
}

func (r *rtfReader) paragraphBreak() {
	if r.st.skip {
		return
	}
	r.endParagraph()
}

func (r *rtfReader) endParagraph() {
	r.flushRun()
	runs := normalize(r.runs)
	r.runs = nil
	if len(runs) == 0 {
		return
	}
	if r.level > 0 {
		r.out = append(r.out, Heading(r.level, runs...))
		return
	}
	r.out = append(r.out, Body(runs...))
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
