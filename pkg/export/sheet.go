package export

import (
	"fmt"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/pathtree"
)

// Row is one line of a state sheet. Group rows (Leaf false) head a nested
// object and carry no value.
type Row struct {
	Path    string       `json:"path"`
	Label   string       `json:"label"`
	Depth   int          `json:"depth"`
	Leaf    bool         `json:"leaf"`
	Value   domain.Value `json:"value,omitzero"`
	Display string       `json:"display,omitempty"`
}

// Sheet is the label/value view of one entity's reconstructed state.
type Sheet struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Position   int    `json:"position"`
	Rows       []Row  `json:"rows"`
}

// BuildSheet lists the tree depth-first in key insertion order.
func BuildSheet(entity domain.Entity, position int, tree *pathtree.Tree) Sheet {
	s := Sheet{EntityID: entity.ID, EntityName: entity.Name, Position: position, Rows: []Row{}}
	if tree == nil {
		return s
	}
	tree.Walk(func(path []string, n *pathtree.Node) {
		row := Row{
			Path:  pathtree.Join(path),
			Label: path[len(path)-1],
			Depth: len(path) - 1,
		}
		if v, ok := n.Value(); ok {
			row.Leaf = true
			row.Value = v
			row.Display = Display(v)
		}
		s.Rows = append(s.Rows, row)
	})
	return s
}

// Display formats a value for people: booleans read as yes/no.
func Display(v domain.Value) string {
	if v.Kind == domain.KindBool {
		if v.Bool {
			return "yes"
		}
		return "no"
	}
	return v.String()
}

// Title is the heading text of the sheet.
func (s Sheet) Title() string {
	name := s.EntityName
	if name == "" {
		name = s.EntityID
	}
	return fmt.Sprintf("%s @ %d", name, s.Position)
}

// Paragraphs renders the sheet as a heading followed by one paragraph per
// row, labels in bold and nesting shown by indentation.
func (s Sheet) Paragraphs() []Paragraph {
	out := []Paragraph{Heading(2, Plain(s.Title()))}
	if len(s.Rows) == 0 {
		return append(out, Body(Run{Text: "(no attributes)", Italic: true}))
	}
	for _, row := range s.Rows {
		indent := strings.Repeat("    ", row.Depth)
		runs := []Run{}
		if indent != "" {
			runs = append(runs, Plain(indent))
		}
		if row.Leaf {
			runs = append(runs, Run{Text: row.Label + ":", Bold: true}, Plain(" "+row.Display))
		} else {
			runs = append(runs, Run{Text: row.Label, Bold: true})
		}
		out = append(out, Body(runs...))
	}
	return out
}

// Markdown renders the sheet as a heading and a nested bullet list.
func (s Sheet) Markdown() string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(escapeMarkdown(s.Title()))
	b.WriteString("\n\n")
	if len(s.Rows) == 0 {
		b.WriteString("*(no attributes)*\n")
		return b.String()
	}
	for _, row := range s.Rows {
		b.WriteString(strings.Repeat("  ", row.Depth))
		b.WriteString("- **")
		b.WriteString(escapeMarkdown(row.Label))
		if row.Leaf {
			b.WriteString(":** ")
			b.WriteString(escapeMarkdown(row.Display))
		} else {
			b.WriteString("**")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
