package export

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDOCX_Package(t *testing.T) {
	paras := []Paragraph{
		Heading(2, Plain("Act <II>")),
		Body(Run{Text: "bold & brave", Bold: true}, Run{Text: "quiet", Italic: true}),
		Body(Plain("two\nlines")),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDOCX(&buf, paras))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		parts[f.Name] = string(data)
	}

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels"} {
		assert.Contains(t, parts, name)
	}

	body := parts["word/document.xml"]
	assert.Contains(t, body, `<w:pStyle w:val="Heading2"/>`)
	assert.Contains(t, body, `Act &lt;II&gt;`)
	assert.Contains(t, body, `<w:rPr><w:b/></w:rPr><w:t xml:space="preserve">bold &amp; brave</w:t>`)
	assert.Contains(t, body, `<w:rPr><w:i/></w:rPr>`)
	assert.Contains(t, body, `two</w:t><w:br/><w:t xml:space="preserve">lines`)
	assert.Contains(t, parts["word/styles.xml"], `w:styleId="Heading6"`)
}
