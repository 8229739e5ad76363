package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// WriteDOCX writes paragraphs as a minimal Office Open XML package.
// Headings use the built-in Heading1..Heading6 styles.
func WriteDOCX(w io.Writer, paras []Paragraph) error {
	zw := zip.NewWriter(w)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/styles.xml", docxStyles()},
		{"word/document.xml", docxDocument(paras)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(f, part.body); err != nil {
			return fmt.Errorf("docx: write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func docxStyles() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:styles ` + wordNS + `>`)
	b.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>`)
	for level := 1; level <= MaxHeadingLevel; level++ {
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Heading%d">`+
			`<w:name w:val="heading %d"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>`+
			`<w:pPr><w:keepNext/><w:outlineLvl w:val="%d"/></w:pPr>`+
			`<w:rPr><w:sz w:val="%d"/></w:rPr></w:style>`,
			level, level, level-1, headingSizes[level])
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func docxDocument(paras []Paragraph) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document ` + wordNS + `><w:body>`)
	for _, p := range paras {
		b.WriteString(`<w:p>`)
		if p.IsHeading() {
			fmt.Fprintf(&b, `<w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, clampLevel(p.Level))
		}
		for _, r := range normalize(p.Runs) {
			b.WriteString(`<w:r>`)
			if r.Bold || r.Italic {
				b.WriteString(`<w:rPr>`)
				if r.Bold {
					b.WriteString(`<w:b/>`)
				}
				if r.Italic {
					b.WriteString(`<w:i/>`)
				}
				b.WriteString(`</w:rPr>`)
			}
			for i, line := range strings.Split(r.Text, "\n") {
				if i > 0 {
					b.WriteString(`<w:br/>`)
				}
				b.WriteString(`<w:t xml:space="preserve">`)
				_ = xml.EscapeText(&b, []byte(line))
				b.WriteString(`</w:t>`)
			}
			b.WriteString(`</w:r>`)
		}
		b.WriteString(`</w:p>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}
