package layout

import (
	"sort"
	"strings"
)

const (
	ruleThickness = 2.0 // max stroke width for a box to count as a line
	ruleMinLength = 8.0
	ruleJoinTol   = 2.0 // gap tolerated between strokes of the same grid
	edgeMergeTol  = 2.0
)

type line struct {
	Rect
	horizontal bool
}

// DetectTables finds bordered grids among rules and fills their cells with
// the spans whose midpoints fall inside them.
func DetectTables(rules []Rect, spans []Span) []Table {
	lines := toLines(rules)
	if len(lines) < 4 {
		return nil
	}

	var tables []Table
	for _, group := range connectedLines(lines) {
		t, ok := buildTable(group, spans)
		if ok {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Y0 != tables[j].Y0 {
			return tables[i].Y0 < tables[j].Y0
		}
		return tables[i].X0 < tables[j].X0
	})
	return tables
}

// toLines turns thin boxes into strokes and larger boxes into their four
// edges.
func toLines(rules []Rect) []line {
	var out []line
	for _, r := range rules {
		w, h := r.Width(), r.Height()
		switch {
		case h <= ruleThickness && w >= ruleMinLength:
			out = append(out, line{Rect: r, horizontal: true})
		case w <= ruleThickness && h >= ruleMinLength:
			out = append(out, line{Rect: r, horizontal: false})
		case w >= ruleMinLength && h >= ruleMinLength:
			out = append(out,
				line{Rect: Rect{r.X0, r.Y0, r.X1, r.Y0}, horizontal: true},
				line{Rect: Rect{r.X0, r.Y1, r.X1, r.Y1}, horizontal: true},
				line{Rect: Rect{r.X0, r.Y0, r.X0, r.Y1}, horizontal: false},
				line{Rect: Rect{r.X1, r.Y0, r.X1, r.Y1}, horizontal: false},
			)
		}
	}
	return out
}

// connectedLines partitions lines into groups of touching strokes.
func connectedLines(lines []line) [][]line {
	parent := make([]int, len(lines))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range lines {
		for j := i + 1; j < len(lines); j++ {
			if lines[i].Overlaps(lines[j].Rect, ruleJoinTol) {
				parent[find(i)] = find(j)
			}
		}
	}

	byRoot := make(map[int][]line)
	var order []int
	for i, l := range lines {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], l)
	}
	groups := make([][]line, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}

func buildTable(group []line, spans []Span) (Table, bool) {
	var ys, xs []float64
	bbox := group[0].Rect
	for _, l := range group {
		bbox = bbox.Union(l.Rect)
		if l.horizontal {
			ys = append(ys, (l.Y0+l.Y1)/2)
		} else {
			xs = append(xs, (l.X0+l.X1)/2)
		}
	}
	ys = mergeEdges(ys)
	xs = mergeEdges(xs)
	if len(ys) < 2 || len(xs) < 2 {
		return Table{}, false
	}
	nRows, nCols := len(ys)-1, len(xs)-1
	if nRows < 2 && nCols < 2 {
		return Table{}, false
	}

	cells := make([][][]Span, nRows)
	for i := range cells {
		cells[i] = make([][]Span, nCols)
	}
	for _, s := range spans {
		cx := s.X + s.W/2
		cy := s.Y - s.H/2
		if !bbox.Contains(cx, cy) {
			continue
		}
		row := bucket(ys, cy)
		col := bucket(xs, cx)
		if row < 0 || col < 0 {
			continue
		}
		cells[row][col] = append(cells[row][col], s)
	}

	t := Table{Rect: bbox}
	for _, rowCells := range cells {
		row := make([]string, nCols)
		empty := true
		for c, cs := range rowCells {
			row[c] = cellText(cs)
			if row[c] != "" {
				empty = false
			}
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, true
}

func mergeEdges(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	out := []float64{vals[0]}
	for _, v := range vals[1:] {
		if v-out[len(out)-1] > edgeMergeTol {
			out = append(out, v)
		}
	}
	return out
}

// bucket returns the index i with edges[i] <= v < edges[i+1], or -1.
func bucket(edges []float64, v float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if v >= edges[i] && v < edges[i+1] {
			return i
		}
	}
	return -1
}

func cellText(spans []Span) string {
	if len(spans) == 0 {
		return ""
	}
	sortReading(spans)
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Markdown renders the table as pipe-delimited rows with a separator after
// the header row.
func (t Table) Markdown() string {
	if len(t.Rows) == 0 {
		return ""
	}
	return PipeRows(t.Rows)
}

// PipeRows renders rows of cells as a pipe table. The first row is treated
// as the header.
func PipeRows(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(strings.ReplaceAll(c, "\n", " "))
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			sb.WriteString("\n| " + strings.Join(sep, " | ") + " |")
		}
	}
	return sb.String()
}
