package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/sylex/internal/doctree"
)

// TextParser handles plain text files. Form feeds start a new page, which
// is how pdftotext and most print-to-text tools delimit pages.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".txt"),
	}

	page := 1
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{
				Text: current.String(),
				Page: page,
			})
			current.Reset()
		}
	}

	for scanner.Scan() {
		segments := strings.Split(scanner.Text(), "\f")
		for i, line := range segments {
			if i > 0 {
				flush()
				page++
			}
			if strings.TrimSpace(line) == "" {
				// A blank segment only ends a paragraph if it is a whole line.
				if len(segments) == 1 {
					flush()
				}
				continue
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tree, nil
}
