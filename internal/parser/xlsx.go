package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/sylex/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles spreadsheet schedules. Each sheet becomes one page
// holding its rows as a pipe table.
type XLSXParser struct{}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".xlsx"),
	}

	page := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		nodes := tableNodes(padRows(rows), page+1)
		if len(nodes) == 0 {
			continue
		}
		page++
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title:    sheet,
			Page:     page,
			Children: nodes,
		})
	}
	return tree, nil
}

// padRows squares off ragged rows; excelize trims trailing empty cells.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}
