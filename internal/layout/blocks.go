package layout

import (
	"math"
	"sort"
	"strings"
)

const (
	lineTol        = 3.0
	paragraphGap   = 1.6 // line pitch, in font sizes, that still continues a block
	runJoinGap     = 1.0 // horizontal gap, in font sizes, that still continues a run
	wordSpaceRatio = 0.15
)

// MergeRuns joins per-glyph fragments that share a baseline into runs. A
// space is inserted where the gap looks like a word break; a gap wider than
// one em starts a new run.
func MergeRuns(glyphs []Span) []Span {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]Span, len(glyphs))
	copy(sorted, glyphs)
	sortReading(sorted)

	var out []Span
	cur := sorted[0]
	var sb strings.Builder
	sb.WriteString(cur.Text)
	for _, g := range sorted[1:] {
		size := math.Max(cur.H, g.H)
		if size <= 0 {
			size = 1
		}
		gap := g.X - (cur.X + cur.W)
		sameLine := math.Abs(g.Y-cur.Y) < size*0.5
		if sameLine && gap <= size*runJoinGap {
			if gap > size*wordSpaceRatio && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(g.Text, " ") {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.Text)
			cur.W = math.Max(cur.X+cur.W, g.X+g.W) - cur.X
			cur.H = size
			continue
		}
		cur.Text = sb.String()
		out = append(out, cur)
		cur = g
		sb.Reset()
		sb.WriteString(g.Text)
	}
	cur.Text = sb.String()
	out = append(out, cur)

	kept := out[:0]
	for _, s := range out {
		if strings.TrimSpace(s.Text) != "" {
			s.Text = strings.TrimSpace(s.Text)
			kept = append(kept, s)
		}
	}
	return kept
}

// BuildBlocks groups spans into lines and lines into paragraph blocks.
func BuildBlocks(spans []Span) []Block {
	if len(spans) == 0 {
		return nil
	}

	type textLine struct {
		rect Rect
		size float64
		text string
	}

	var lines []textLine
	for _, r := range groupLines(spans) {
		sort.Slice(r, func(i, j int) bool { return r[i].X < r[j].X })
		rect := r[0].Rect()
		size := 0.0
		parts := make([]string, 0, len(r))
		for _, s := range r {
			rect = rect.Union(s.Rect())
			size = math.Max(size, s.H)
			parts = append(parts, strings.TrimSpace(s.Text))
		}
		lines = append(lines, textLine{rect: rect, size: size, text: strings.Join(parts, " ")})
	}

	var blocks []Block
	var cur *Block
	var prev textLine
	for _, l := range lines {
		if cur != nil {
			size := math.Max(prev.size, l.size)
			if size <= 0 {
				size = 1
			}
			pitch := l.rect.Y1 - prev.rect.Y1
			overlapX := l.rect.X0 <= prev.rect.X1 && prev.rect.X0 <= l.rect.X1
			if pitch <= size*paragraphGap && overlapX {
				cur.Rect = cur.Rect.Union(l.rect)
				cur.Text += "\n" + l.text
				prev = l
				continue
			}
			blocks = append(blocks, *cur)
		}
		cur = &Block{Rect: l.rect, Text: l.text}
		prev = l
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}

// groupLines clusters spans into baseline rows ordered top to bottom.
func groupLines(spans []Span) [][]Span {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sortReading(sorted)

	var rows [][]Span
	var anchors []float64
	for _, s := range sorted {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		n := len(anchors)
		if n > 0 && math.Abs(anchors[n-1]-s.Y) <= lineTol {
			rows[n-1] = append(rows[n-1], s)
			continue
		}
		anchors = append(anchors, s.Y)
		rows = append(rows, []Span{s})
	}
	return rows
}

func sortReading(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if math.Abs(spans[i].Y-spans[j].Y) > 0.5 {
			return spans[i].Y < spans[j].Y
		}
		return spans[i].X < spans[j].X
	})
}

// readingKey approximates reading order by snapping to a 5-unit grid.
func readingKey(r Rect) (float64, float64) {
	return math.Round(r.Y0/5) * 5, math.Round(r.X0/5) * 5
}
