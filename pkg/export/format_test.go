package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.txt":         FormatText,
		"dir/B.MD":      FormatMarkdown,
		"c.markdown":    FormatMarkdown,
		"story.rtf":     FormatRTF,
		"/tmp/doc.DOCX": FormatDOCX,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("x.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	_, err = FormatFromPath("noext")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestRead_DOCXUnsupported(t *testing.T) {
	_, err := Read(strings.NewReader("PK"), FormatDOCX)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".rtf")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []Paragraph{
		Heading(1, Plain("Title")),
		Body(Run{Text: "bold", Bold: true}, Plain(" text")),
	}))
	assert.Equal(t, "Title\n\nbold text\n", buf.String())
	assert.Equal(t, []Paragraph{Body(Plain("Title")), Body(Plain("bold text"))}, ParseText(buf.String()))
}

func TestReadStripsBOM(t *testing.T) {
	got, err := Read(strings.NewReader("\xef\xbb\xbf# Hi"), FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, []Paragraph{Heading(1, Plain("Hi"))}, got)
}

func TestFiles_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	paras := ParseMarkdown("# Quest\n\nAria has **10** HP and a *sword*.")

	for _, name := range []string{"out.md", "out.rtf"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, paras))
			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, paras, got)
		})
	}

	t.Run("docx writes but does not read", func(t *testing.T) {
		path := filepath.Join(dir, "out.docx")
		require.NoError(t, WriteFile(path, paras))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())

		_, err = ReadFile(path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(dir, "missing.txt"))
		assert.ErrorIs(t, err, domain.ErrIOFailure)
	})
}
