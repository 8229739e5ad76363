package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/xuri/excelize/v2"
)

var xlsxHeader = []any{"Path", "Field", "Value"}

// WriteSheetXLSX writes one worksheet per sheet. Numbers and booleans keep
// their cell types; group rows leave the value column empty.
func WriteSheetXLSX(w io.Writer, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	used := map[string]bool{}
	for i, s := range sheets {
		name := worksheetName(s.Title(), used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: new sheet: %w", err)
		}

		if err := f.SetSheetRow(name, "A1", &xlsxHeader); err != nil {
			return fmt.Errorf("xlsx: header: %w", err)
		}
		if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
			return fmt.Errorf("xlsx: header style: %w", err)
		}
		for r, row := range s.Rows {
			cells := []any{row.Path, strings.Repeat("  ", row.Depth) + row.Label, cellValue(row)}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("xlsx: row %d: %w", r+2, err)
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				return fmt.Errorf("xlsx: row %d: %w", r+2, err)
			}
		}
		for _, col := range xlsxColumns {
			if err := f.SetColWidth(name, col.name, col.name, col.width); err != nil {
				return fmt.Errorf("xlsx: column %s width: %w", col.name, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: xlsx: %v", domain.ErrIOFailure, err)
	}
	return nil
}

var xlsxColumns = []struct {
	name  string
	width float64
}{{"A", 28}, {"B", 24}, {"C", 18}}

func cellValue(row Row) any {
	if !row.Leaf {
		return nil
	}
	switch row.Value.Kind {
	case domain.KindNumber:
		return row.Value.Number
	case domain.KindBool:
		return row.Value.Bool
	}
	return row.Value.Text
}

// worksheetName makes title a valid, unique worksheet name: at most 31
// characters and none of []:*?/\.
func worksheetName(title string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, title)
	clean = truncateRunes(clean, 31)
	if clean == "" {
		clean = "Sheet"
	}
	name := clean
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(clean, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
