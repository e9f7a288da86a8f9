package layout

import (
	"math"
	"sort"
	"strings"
)

const (
	// DefaultColumnGap is the minimum horizontal gap between span origins
	// that splits a label column from a value column.
	DefaultColumnGap = 40.0

	columnRowTol  = 3.0
	columnPairTol = 20.0
	columnMinSpan = 4
)

type row struct {
	y    float64
	text string
}

// TwoColumn rebuilds label/value layouts ("Instructor      Dr. Ruiz") as
// "LABEL: value" lines. It returns false when the spans show no qualifying
// column split.
func TwoColumn(spans []Span, minGap float64) (string, bool) {
	var live []Span
	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			live = append(live, s)
		}
	}
	if len(live) < columnMinSpan {
		return "", false
	}

	xs := make([]float64, len(live))
	for i, s := range live {
		xs[i] = s.X
	}
	sort.Float64s(xs)

	bestGap, split := 0.0, 0.0
	for i := 0; i+1 < len(xs); i++ {
		gap := xs[i+1] - xs[i]
		if gap > minGap && gap > bestGap {
			bestGap = gap
			split = (xs[i] + xs[i+1]) / 2
		}
	}
	if bestGap == 0 {
		return "", false
	}

	var left, right []Span
	for _, s := range live {
		if s.X < split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return "", false
	}

	leftRows := groupRows(left, columnRowTol)
	rightRows := groupRows(right, columnRowTol)
	used := make([]bool, len(rightRows))

	var lines []string
	for _, lr := range leftRows {
		best := -1
		bestDist := math.Inf(1)
		for i, rr := range rightRows {
			if used[i] {
				continue
			}
			if d := math.Abs(rr.y - lr.y); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 && bestDist < columnPairTol {
			used[best] = true
			lines = append(lines, lr.text+": "+rightRows[best].text)
			continue
		}
		lines = append(lines, lr.text)
	}
	for i, rr := range rightRows {
		if !used[i] {
			lines = append(lines, "  "+rr.text)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// groupRows clusters spans by baseline. A span joins the first existing row
// whose anchor lies within tol; rows come back ordered top to bottom.
func groupRows(spans []Span, tol float64) []row {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var anchors []float64
	var texts [][]string
	for _, s := range sorted {
		idx := -1
		for i, y := range anchors {
			if math.Abs(y-s.Y) <= tol {
				idx = i
				break
			}
		}
		if idx < 0 {
			anchors = append(anchors, s.Y)
			texts = append(texts, nil)
			idx = len(anchors) - 1
		}
		texts[idx] = append(texts[idx], strings.TrimSpace(s.Text))
	}

	rows := make([]row, len(anchors))
	for i := range anchors {
		rows[i] = row{y: anchors[i], text: strings.Join(texts[i], " ")}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y < rows[j].y })
	return rows
}
