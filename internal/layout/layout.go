package layout

import (
	"sort"
	"strings"
)

const tableOverlapTol = 5.0

// Text renders a page in best-effort reading order. Bordered tables come
// first as pipe tables; a page without tables is tried as a label/value
// layout; anything else falls back to positional blocks.
func Text(p Page) string {
	tables := DetectTables(p.Rules, p.Spans)

	if len(tables) == 0 {
		if s, ok := TwoColumn(p.Spans, DefaultColumnGap); ok {
			return s
		}
	}

	var parts []string
	for _, t := range tables {
		if md := t.Markdown(); md != "" {
			parts = append(parts, md)
		}
	}

	blocks := p.Blocks
	if blocks == nil {
		blocks = BuildBlocks(p.Spans)
	}
	ordered := make([]Block, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		yi, xi := readingKey(ordered[i].Rect)
		yj, xj := readingKey(ordered[j].Rect)
		if yi != yj {
			return yi < yj
		}
		return xi < xj
	})

	for _, b := range ordered {
		if overlapsAny(b.Rect, tables) {
			continue
		}
		if s := strings.TrimSpace(b.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func overlapsAny(r Rect, tables []Table) bool {
	for _, t := range tables {
		if r.Overlaps(t.Rect, tableOverlapTol) {
			return true
		}
	}
	return false
}
