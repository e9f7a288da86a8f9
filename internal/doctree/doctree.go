package doctree

import (
	"fmt"
	"strings"
)

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A, treated as page 1)
	Children []*DocNode // Subsections
}

// Chunk is a sized slice of the full text, ready for extraction.
type Chunk struct {
	Text      string
	Index     int // Sequence number within document
	PageStart int
	PageEnd   int
}

// PageMarker returns the delimiter written before each page of FullText.
func PageMarker(n int) string {
	return fmt.Sprintf("[PAGE %d]", n)
}

// FullText flattens the tree in document order. Each run of nodes from the
// same page is introduced by a page marker on its own line; pages are
// separated by a blank line. Pages with no text are omitted.
func (t *DocTree) FullText() string {
	if t == nil {
		return ""
	}

	var pages []string
	curPage := -1
	var parts []string
	flush := func() {
		if len(parts) == 0 {
			return
		}
		pages = append(pages, PageMarker(curPage)+"\n"+strings.Join(parts, "\n\n"))
		parts = nil
	}

	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			page := n.Page
			if page <= 0 {
				page = 1
			}
			if page != curPage {
				flush()
				curPage = page
			}
			if s := n.render(); s != "" {
				parts = append(parts, s)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	flush()

	return strings.Join(pages, "\n\n")
}

func (n *DocNode) render() string {
	title := strings.TrimSpace(n.Title)
	text := strings.TrimSpace(n.Text)
	switch {
	case title != "" && text != "":
		return title + "\n" + text
	case title != "":
		return title
	default:
		return text
	}
}
