package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Format names an external document format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatRTF      Format = "rtf"
	FormatDOCX     Format = "docx"
)

var extensions = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".rtf":      FormatRTF,
	".docx":     FormatDOCX,
}

// FormatFromPath resolves the format from the file extension, case-insensitively.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown extension %q (use .txt, .md, .rtf or .docx)", domain.ErrUnsupportedFormat, ext)
}

// Write encodes paragraphs in the given format.
func Write(w io.Writer, format Format, paras []Paragraph) error {
	switch format {
	case FormatText:
		return WriteText(w, paras)
	case FormatMarkdown:
		_, err := io.WriteString(w, ToMarkdown(paras)+"\n")
		return err
	case FormatRTF:
		return WriteRTF(w, paras)
	case FormatDOCX:
		return WriteDOCX(w, paras)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// Read decodes paragraphs from the given format. DOCX cannot be read.
func Read(r io.Reader, format Format) ([]Paragraph, error) {
	if format == FormatDOCX {
		return nil, fmt.Errorf("%w: DOCX import is not available; save the file as .rtf or .txt in your word processor and import that", domain.ErrUnsupportedFormat)
	}
	if _, ok := formatSet()[format]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	text := string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))

	switch format {
	case FormatText:
		return ParseText(text), nil
	case FormatMarkdown:
		return ParseMarkdown(text), nil
	default:
		return ParseRTF(text)
	}
}

func formatSet() map[Format]struct{} {
	set := make(map[Format]struct{}, len(extensions))
	for _, f := range extensions {
		set[f] = struct{}{}
	}
	return set
}

// WriteFile exports paragraphs to path, choosing the format by extension.
func WriteFile(path string, paras []Paragraph) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, paras); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// ReadFile imports paragraphs from path, choosing the format by extension.
func ReadFile(path string) ([]Paragraph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if format == FormatDOCX {
		return Read(nil, format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	defer f.Close()
	return Read(f, format)
}
