package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/sylex/internal/doctree"
	"github.com/dgallion1/sylex/internal/layout"
)

// csvBatchSize bounds rows per node; each batch repeats the header row so
// a chunk boundary never separates a row from its column names.
const csvBatchSize = 40

// CSVParser handles CSV exports of course schedules.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
	}
	tree.Children = tableNodes(records, 0)
	return tree, nil
}

// tableNodes splits a header-first grid into pipe-table nodes on one page.
func tableNodes(records [][]string, page int) []*doctree.DocNode {
	var rows [][]string
	for _, rec := range records {
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				rows = append(rows, rec)
				break
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}

	headers := rows[0]
	data := rows[1:]
	if len(data) == 0 {
		return []*doctree.DocNode{{Text: layout.PipeRows(rows), Page: page}}
	}

	var nodes []*doctree.DocNode
	for i := 0; i < len(data); i += csvBatchSize {
		end := min(i+csvBatchSize, len(data))
		batch := append([][]string{headers}, data[i:end]...)
		nodes = append(nodes, &doctree.DocNode{
			Text: layout.PipeRows(batch),
			Page: page,
		})
	}
	return nodes
}
